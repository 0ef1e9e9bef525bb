// internal/domain/breeding/breeding.go
package breeding

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAnimalNotFound            = errors.New("animal not found")
	ErrEventNotFound             = errors.New("breeding event not found")
	ErrFarrowingNotFound         = errors.New("farrowing not found")
	ErrFarrowingExists           = errors.New("farrowing already recorded for breeding event")
	ErrFarrowingAlreadyCompleted = errors.New("farrowing already has an actual date")
	ErrPigletNotFound            = errors.New("piglet not found")
	ErrInvalidPigletTransition   = errors.New("invalid piglet status transition")
	ErrInvalidResultTransition   = errors.New("invalid breeding result transition")
	ErrOpenBreeding              = errors.New("animal already has an open breeding")
)

// AnimalKind distinguishes breeding stock.
type AnimalKind string

const (
	KindSow  AnimalKind = "sow"
	KindGilt AnimalKind = "gilt"
	KindBoar AnimalKind = "boar"
)

// AnimalStatus is the reproductive status of a breeding animal.
type AnimalStatus string

const (
	AnimalAvailable AnimalStatus = "available" // available for breeding
	AnimalBred      AnimalStatus = "bred"
	AnimalPregnant  AnimalStatus = "pregnant"
	AnimalNursing   AnimalStatus = "nursing"
	AnimalCulled    AnimalStatus = "culled"
	AnimalSold      AnimalStatus = "sold"
)

// Animal is a sow, gilt or boar. OwnerUserID receives its reminders.
type Animal struct {
	ID             uuid.UUID
	OrganizationID uuid.UUID
	OwnerUserID    uuid.UUID
	Tag            string
	Kind           AnimalKind
	Status         AnimalStatus
	CreatedAt      time.Time
}

// Method is how a breeding was performed.
type Method string

const (
	MethodNatural Method = "natural"
	MethodAI      Method = "ai"
)

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	return m == MethodNatural || m == MethodAI
}

// ResultState is the observed outcome of a breeding.
type ResultState string

const (
	ResultPending        ResultState = "pending"
	ResultPregnant       ResultState = "pregnant"
	ResultReturnedToHeat ResultState = "returned_to_heat"
	ResultAborted        ResultState = "aborted"
	ResultUnknown        ResultState = "unknown"
)

// Valid reports whether r is a known result state.
func (r ResultState) Valid() bool {
	switch r {
	case ResultPending, ResultPregnant, ResultReturnedToHeat, ResultAborted, ResultUnknown:
		return true
	}
	return false
}

// Negative reports whether the result says the sow is not carrying the litter.
func (r ResultState) Negative() bool {
	return r == ResultReturnedToHeat || r == ResultAborted || r == ResultUnknown
}

// NegativeResults lists every state for which Negative is true.
var NegativeResults = []ResultState{ResultReturnedToHeat, ResultAborted, ResultUnknown}

// Event is one breeding of one animal. BreedingDate never changes once set.
type Event struct {
	ID             uuid.UUID
	AnimalID       uuid.UUID
	BoarID         uuid.NullUUID
	BreedingDate   time.Time
	Method         Method
	Result         ResultState
	CheckConfirmed bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Counts are the litter counts of a farrowing.
type Counts struct {
	LiveBorn  int `json:"liveBorn"`
	Stillborn int `json:"stillborn"`
	Mummified int `json:"mummified"`
}

// Farrowing records a litter. ExpectedDate is fixed at insertion.
type Farrowing struct {
	ID              uuid.UUID
	AnimalID        uuid.UUID
	BreedingEventID uuid.NullUUID
	ExpectedDate    time.Time
	ActualDate      *time.Time
	Counts          Counts
	CreatedAt       time.Time
}

// Completed reports whether the farrowing has happened.
func (f *Farrowing) Completed() bool {
	return f.ActualDate != nil
}

// PigletStatus is the lifecycle status of a litter member.
type PigletStatus string

const (
	PigletNursing PigletStatus = "nursing"
	PigletWeaned  PigletStatus = "weaned"
	PigletDied    PigletStatus = "died"
	PigletCulled  PigletStatus = "culled"
)

// Valid reports whether s is a known status.
func (s PigletStatus) Valid() bool {
	switch s {
	case PigletNursing, PigletWeaned, PigletDied, PigletCulled:
		return true
	}
	return false
}

// CanTransition allows Nursing -> {Weaned, Died, Culled} only.
func (s PigletStatus) CanTransition(to PigletStatus) bool {
	return s == PigletNursing && to != PigletNursing && to.Valid()
}

// Piglet is a litter member.
type Piglet struct {
	ID          uuid.UUID
	FarrowingID uuid.UUID
	BirthDate   time.Time
	Status      PigletStatus
	WeaningDate *time.Time
	UpdatedAt   time.Time
}

// CanTransition allows pending -> any outcome and pregnant -> a negative outcome.
func (r ResultState) CanTransition(to ResultState) bool {
	if !to.Valid() || to == ResultPending || to == r {
		return false
	}
	switch r {
	case ResultPending:
		return true
	case ResultPregnant:
		return to.Negative()
	default:
		return false
	}
}
