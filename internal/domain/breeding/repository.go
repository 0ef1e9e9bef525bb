// internal/domain/breeding/repository.go
package breeding

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists animals, breeding events, farrowings and piglets.
type Repository interface {
	GetAnimal(ctx context.Context, id uuid.UUID) (*Animal, error)
	UpdateAnimalStatus(ctx context.Context, id uuid.UUID, status AnimalStatus) error

	// CreateEvent inserts ev and marks its animal bred in one transaction. It
	// returns ErrOpenBreeding while the animal has a pending or pregnant
	// breeding whose farrowing is not completed.
	CreateEvent(ctx context.Context, ev *Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (*Event, error)
	// UpdateEventResult stores a new result; BreedingDate is never written.
	UpdateEventResult(ctx context.Context, id uuid.UUID, result ResultState, checkConfirmed bool) error

	// CreateFarrowing inserts f; ErrFarrowingExists if the breeding already has one.
	CreateFarrowing(ctx context.Context, f *Farrowing) error
	GetFarrowing(ctx context.Context, id uuid.UUID) (*Farrowing, error)
	GetFarrowingByEvent(ctx context.Context, eventID uuid.UUID) (*Farrowing, error)
	// CompleteFarrowing sets the actual date only if it is still unset,
	// returning ErrFarrowingAlreadyCompleted otherwise.
	CompleteFarrowing(ctx context.Context, id uuid.UUID, actual time.Time, counts Counts) error

	GetPiglet(ctx context.Context, id uuid.UUID) (*Piglet, error)
	// UpdatePigletStatus moves a nursing piglet to a terminal status,
	// returning ErrInvalidPigletTransition if it is no longer nursing.
	UpdatePigletStatus(ctx context.Context, id uuid.UUID, status PigletStatus, weaningDate *time.Time) error
	// CountNursing returns how many piglets of a farrowing are still nursing.
	CountNursing(ctx context.Context, farrowingID uuid.UUID) (int, error)
	// LitterDates returns the latest birth and weaning dates of a farrowing's piglets.
	LitterDates(ctx context.Context, farrowingID uuid.UUID) (latestBirth, latestWeaning *time.Time, err error)
}

// SweepSource is the read side the reminder sweeps query. A nil organization
// scope means every organization.
type SweepSource interface {
	// ListUnfarrowedBreedings returns breedings with no completed farrowing and
	// no negative result whose expected farrowing date is on or after dueFrom.
	// The expected date is the farrowing record's, else the breeding date plus
	// gestationDays.
	ListUnfarrowedBreedings(ctx context.Context, org uuid.NullUUID, dueFrom time.Time, gestationDays int) ([]BreedingView, error)
	// ListPendingBreedings returns breedings still in the pending state bred on or after bredSince.
	ListPendingBreedings(ctx context.Context, org uuid.NullUUID, bredSince time.Time) ([]BreedingView, error)
	// ListNursingPiglets returns nursing piglets born on or after bornSince.
	ListNursingPiglets(ctx context.Context, org uuid.NullUUID, bornSince time.Time) ([]LitterMemberView, error)
	// ListWeanedForAvailableSows returns piglets weaned on or after weanedSince
	// whose sow is available for breeding.
	ListWeanedForAvailableSows(ctx context.Context, org uuid.NullUUID, weanedSince time.Time) ([]LitterMemberView, error)
}
