// internal/domain/housing/housing.go
package housing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnitNotFound   = errors.New("housing unit not found")
	ErrAlreadyHoused  = errors.New("animal already housed in this unit")
	ErrMoveBeforeOpen = errors.New("move time precedes current assignment")
)

// UnitType classifies housing units.
type UnitType string

const (
	UnitGestation      UnitType = "gestation" // group gestation pen
	UnitGestationStall UnitType = "gestation_stall"
	UnitFarrowingCrate UnitType = "farrowing_crate"
	UnitHospital       UnitType = "hospital"
	UnitBreeding       UnitType = "breeding"
	UnitNursery        UnitType = "nursery"
	UnitFinishing      UnitType = "finishing"
	UnitBoar           UnitType = "boar"
)

// Valid reports whether t is a known unit type.
func (t UnitType) Valid() bool {
	switch t {
	case UnitGestation, UnitGestationStall, UnitFarrowingCrate, UnitHospital,
		UnitBreeding, UnitNursery, UnitFinishing, UnitBoar:
		return true
	}
	return false
}

// Confining reports whether the unit holds an animal individually.
func (t UnitType) Confining() bool {
	switch t {
	case UnitFarrowingCrate, UnitHospital, UnitGestationStall:
		return true
	}
	return false
}

// Unit is a pen, stall or crate. CurrentOccupants counts open assignments.
type Unit struct {
	ID               uuid.UUID
	OrganizationID   uuid.UUID
	Name             string
	Type             UnitType
	TotalSqFt        float64
	CurrentOccupants int
}

// Interval is one stay of an animal in a unit. MovedOut is nil for the
// current assignment; an animal has at most one such interval.
type Interval struct {
	ID            uuid.UUID
	AnimalID      uuid.UUID
	HousingUnitID uuid.UUID
	UnitType      UnitType
	MovedIn       time.Time
	MovedOut      *time.Time
}

// Repository persists housing units and assignment intervals.
type Repository interface {
	GetUnit(ctx context.Context, id uuid.UUID) (*Unit, error)
	// ListIntervals returns the animal's intervals overlapping [from, to].
	ListIntervals(ctx context.Context, animalID uuid.UUID, from, to time.Time) ([]Interval, error)
	// MoveAnimal closes the animal's open interval at `at` and opens a new one
	// in unitID, atomically.
	MoveAnimal(ctx context.Context, animalID, unitID uuid.UUID, at time.Time) (*Interval, error)
}
