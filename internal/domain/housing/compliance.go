package housing

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// DefaultMinSqFtPerAnimal is the gestation floor-space minimum of the modeled regulation.
const DefaultMinSqFtPerAnimal = 24.0

// SquareFootagePerAnimal returns total floor space divided by occupants.
// ok is false when the unit is empty and the ratio is unknown.
func SquareFootagePerAnimal(u Unit) (sqFt float64, ok bool) {
	if u.CurrentOccupants <= 0 {
		return 0, false
	}
	return u.TotalSqFt / float64(u.CurrentOccupants), true
}

// IsCompliant applies the floor-space rule, which only constrains gestation units.
// An empty gestation unit is compliant.
func IsCompliant(u Unit, minSqFtPerAnimal float64) bool {
	if u.Type != UnitGestation {
		return true
	}
	perAnimal, ok := SquareFootagePerAnimal(u)
	if !ok {
		return true
	}
	return perAnimal >= minSqFtPerAnimal
}

// MaxCapacity is the number of animals the unit can hold at minSqFtPerAnimal.
func MaxCapacity(u Unit, minSqFtPerAnimal float64) int {
	if minSqFtPerAnimal <= 0 {
		panic("housing: minSqFtPerAnimal must be positive")
	}
	return int(math.Floor(u.TotalSqFt / minSqFtPerAnimal))
}

// ConfinementHours sums the hours animalID spent in confining units within
// [windowStart, windowEnd]. Open intervals are treated as ending at asOf.
func ConfinementHours(intervals []Interval, animalID uuid.UUID, windowStart, windowEnd, asOf time.Time) float64 {
	if !windowEnd.After(windowStart) {
		return 0
	}
	var total time.Duration
	for _, iv := range intervals {
		if iv.AnimalID != animalID || !iv.UnitType.Confining() {
			continue
		}
		end := asOf
		if iv.MovedOut != nil {
			end = *iv.MovedOut
		}
		start := iv.MovedIn
		if start.Before(windowStart) {
			start = windowStart
		}
		if end.After(windowEnd) {
			end = windowEnd
		}
		if end.After(start) {
			total += end.Sub(start)
		}
	}
	return total.Hours()
}

// Compliance is the computed floor-space view of a unit.
type Compliance struct {
	UnitID        uuid.UUID `json:"unitId"`
	Name          string    `json:"name"`
	Type          UnitType  `json:"type"`
	Occupants     int       `json:"occupants"`
	SqFtPerAnimal *float64  `json:"sqFtPerAnimal"`
	MinSqFt       float64   `json:"minSqFtPerAnimal"`
	MaxCapacity   int       `json:"maxCapacity"`
	Compliant     bool      `json:"compliant"`
}

// Evaluate builds the Compliance view of u. SqFtPerAnimal is nil when unknown.
func Evaluate(u Unit, minSqFtPerAnimal float64) Compliance {
	c := Compliance{
		UnitID:      u.ID,
		Name:        u.Name,
		Type:        u.Type,
		Occupants:   u.CurrentOccupants,
		MinSqFt:     minSqFtPerAnimal,
		MaxCapacity: MaxCapacity(u, minSqFtPerAnimal),
		Compliant:   IsCompliant(u, minSqFtPerAnimal),
	}
	if v, ok := SquareFootagePerAnimal(u); ok {
		c.SqFtPerAnimal = &v
	}
	return c
}
