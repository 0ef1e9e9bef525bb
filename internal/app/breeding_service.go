// internal/app/breeding_service.go
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sow_tracker/internal/domain/breeding"
	"sow_tracker/internal/domain/cycle"
	"sow_tracker/internal/domain/notification"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BreedingService records reproductive events and keeps reminders consistent with them.
type BreedingService struct {
	repo      breeding.Repository
	scheduler *Scheduler
	policies  *cycle.PolicySet
	location  *time.Location
	now       func() time.Time
	logger    *logrus.Entry
}

func NewBreedingService(
	repo breeding.Repository,
	scheduler *Scheduler,
	policies *cycle.PolicySet,
	location *time.Location,
	now func() time.Time,
	logger *logrus.Entry,
) *BreedingService {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &BreedingService{
		repo:      repo,
		scheduler: scheduler,
		policies:  policies,
		location:  location,
		now:       now,
		logger:    logger.WithField("component", "breeding"),
	}
}

// BreedingInput is a new breeding record.
type BreedingInput struct {
	AnimalID     uuid.UUID
	BoarID       uuid.NullUUID
	BreedingDate time.Time
	Method       breeding.Method
}

// RecordBreeding stores a pending breeding and marks the animal as bred in
// one step. An animal with an open breeding is rejected with
// breeding.ErrOpenBreeding.
func (s *BreedingService) RecordBreeding(ctx context.Context, in BreedingInput) (*breeding.Event, error) {
	if in.BreedingDate.IsZero() || !in.Method.Valid() {
		return nil, fmt.Errorf("%w: breeding date and method (natural|ai) are required", ErrInvalidInput)
	}
	animal, err := s.repo.GetAnimal(ctx, in.AnimalID)
	if err != nil {
		return nil, err
	}
	if animal.Kind == breeding.KindBoar || animal.Status == breeding.AnimalCulled || animal.Status == breeding.AnimalSold {
		return nil, fmt.Errorf("%w: %s is %s/%s", ErrAnimalNotBreedable, animal.Tag, animal.Kind, animal.Status)
	}

	ev := &breeding.Event{
		ID:           uuid.New(),
		AnimalID:     animal.ID,
		BoarID:       in.BoarID,
		BreedingDate: cycle.DateOf(in.BreedingDate),
		Method:       in.Method,
		Result:       breeding.ResultPending,
	}
	if err := s.repo.CreateEvent(ctx, ev); err != nil {
		return nil, fmt.Errorf("create breeding event for %s: %w", animal.Tag, err)
	}
	s.logger.WithFields(logrus.Fields{
		"breeding_event_id": ev.ID,
		"animal_id":         animal.ID,
		"breeding_date":     ev.BreedingDate.Format("2006-01-02"),
	}).Info("Breeding recorded")
	return ev, nil
}

// RecordPregnancyCheck stores the outcome of a pregnancy check. A positive
// check retires the check reminder; a negative one also retires the farrowing
// alert and makes the sow available again.
func (s *BreedingService) RecordPregnancyCheck(ctx context.Context, eventID uuid.UUID, outcome breeding.ResultState) (*breeding.Event, error) {
	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !ev.Result.CanTransition(outcome) {
		return nil, fmt.Errorf("%w: %s -> %s", breeding.ErrInvalidResultTransition, ev.Result, outcome)
	}
	animal, err := s.repo.GetAnimal(ctx, ev.AnimalID)
	if err != nil {
		return nil, err
	}

	confirmed := outcome == breeding.ResultPregnant
	if err := s.repo.UpdateEventResult(ctx, ev.ID, outcome, confirmed); err != nil {
		return nil, fmt.Errorf("update breeding result: %w", err)
	}
	ev.Result = outcome
	ev.CheckConfirmed = confirmed

	status := breeding.AnimalPregnant
	cancel := []notification.Type{notification.TypePregnancyCheck}
	if outcome.Negative() {
		status = breeding.AnimalAvailable
		cancel = append(cancel, notification.TypeFarrowingAlert)
	}
	if err := s.repo.UpdateAnimalStatus(ctx, animal.ID, status); err != nil {
		return nil, fmt.Errorf("update animal status: %w", err)
	}
	if _, err := s.scheduler.Cancel(ctx, animal.OwnerUserID, notification.BreedingKey(ev.ID), cancel...); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"breeding_event_id": ev.ID,
		"outcome":           outcome,
	}).Info("Pregnancy check recorded")
	return ev, nil
}

// RecordFarrowing creates the farrowing record of a breeding. The expected date
// is computed here once and never recomputed. When actual is given the
// farrowing is recorded as already completed.
func (s *BreedingService) RecordFarrowing(ctx context.Context, eventID uuid.UUID, actual *time.Time, counts breeding.Counts) (*breeding.Farrowing, error) {
	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if ev.Result.Negative() {
		return nil, fmt.Errorf("%w: breeding %s ended as %s", breeding.ErrInvalidResultTransition, ev.ID, ev.Result)
	}
	animal, err := s.repo.GetAnimal(ctx, ev.AnimalID)
	if err != nil {
		return nil, err
	}

	policy := s.policies.For(animal.OrganizationID)
	f := &breeding.Farrowing{
		ID:              uuid.New(),
		AnimalID:        animal.ID,
		BreedingEventID: uuid.NullUUID{UUID: ev.ID, Valid: true},
		ExpectedDate:    policy.ExpectedFarrowingDate(ev.BreedingDate),
		Counts:          counts,
	}
	if actual != nil {
		d := cycle.DateOf(*actual)
		f.ActualDate = &d
	}
	if err := s.repo.CreateFarrowing(ctx, f); err != nil {
		return nil, err
	}
	if f.Completed() {
		if err := s.afterFarrowing(ctx, animal, ev.ID); err != nil {
			return nil, err
		}
	}
	s.logger.WithFields(logrus.Fields{
		"farrowing_id":  f.ID,
		"expected_date": f.ExpectedDate.Format("2006-01-02"),
		"completed":     f.Completed(),
	}).Info("Farrowing recorded")
	return f, nil
}

// CompleteFarrowing sets the actual farrowing date. It succeeds once per farrowing.
func (s *BreedingService) CompleteFarrowing(ctx context.Context, farrowingID uuid.UUID, actual time.Time, counts breeding.Counts) (*breeding.Farrowing, error) {
	if actual.IsZero() {
		return nil, fmt.Errorf("%w: actual date is required", ErrInvalidInput)
	}
	f, err := s.repo.GetFarrowing(ctx, farrowingID)
	if err != nil {
		return nil, err
	}
	if f.Completed() {
		return nil, breeding.ErrFarrowingAlreadyCompleted
	}
	d := cycle.DateOf(actual)
	if err := s.repo.CompleteFarrowing(ctx, f.ID, d, counts); err != nil {
		return nil, err
	}
	f.ActualDate = &d
	f.Counts = counts

	animal, err := s.repo.GetAnimal(ctx, f.AnimalID)
	if err != nil {
		return nil, err
	}
	eventID := uuid.Nil
	if f.BreedingEventID.Valid {
		eventID = f.BreedingEventID.UUID
	}
	if err := s.afterFarrowing(ctx, animal, eventID); err != nil {
		return nil, err
	}
	s.logger.WithField("farrowing_id", f.ID).Info("Farrowing completed")
	return f, nil
}

func (s *BreedingService) afterFarrowing(ctx context.Context, animal *breeding.Animal, eventID uuid.UUID) error {
	if err := s.repo.UpdateAnimalStatus(ctx, animal.ID, breeding.AnimalNursing); err != nil {
		return fmt.Errorf("mark animal %s nursing: %w", animal.Tag, err)
	}
	if eventID == uuid.Nil {
		return nil
	}
	_, err := s.scheduler.Cancel(ctx, animal.OwnerUserID, notification.BreedingKey(eventID),
		notification.TypeFarrowingAlert, notification.TypePregnancyCheck)
	return err
}

// SetPigletStatus moves a nursing piglet to a terminal status. Once no piglet
// of the litter is nursing, a nursing sow becomes available for breeding.
func (s *BreedingService) SetPigletStatus(ctx context.Context, pigletID uuid.UUID, status breeding.PigletStatus, on time.Time) (*breeding.Piglet, error) {
	p, err := s.repo.GetPiglet(ctx, pigletID)
	if err != nil {
		return nil, err
	}
	if !p.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: %s -> %s", breeding.ErrInvalidPigletTransition, p.Status, status)
	}

	var weaning *time.Time
	if status == breeding.PigletWeaned {
		if on.IsZero() {
			on = s.now().In(s.location)
		}
		d := cycle.DateOf(on)
		weaning = &d
	}
	if err := s.repo.UpdatePigletStatus(ctx, p.ID, status, weaning); err != nil {
		return nil, err
	}
	p.Status = status
	p.WeaningDate = weaning

	nursing, err := s.repo.CountNursing(ctx, p.FarrowingID)
	if err != nil {
		return nil, err
	}
	if nursing > 0 {
		return p, nil
	}
	f, err := s.repo.GetFarrowing(ctx, p.FarrowingID)
	if err != nil {
		return nil, err
	}
	sow, err := s.repo.GetAnimal(ctx, f.AnimalID)
	if err != nil {
		return nil, err
	}
	if sow.Status == breeding.AnimalNursing {
		if err := s.repo.UpdateAnimalStatus(ctx, sow.ID, breeding.AnimalAvailable); err != nil {
			return nil, fmt.Errorf("mark sow %s available: %w", sow.Tag, err)
		}
		s.logger.WithField("animal_id", sow.ID).Info("Litter done nursing, sow available")
	}
	return p, nil
}

// TimelineView is a breeding's timeline with the identifiers it was built from.
type TimelineView struct {
	BreedingEventID uuid.UUID  `json:"breedingEventId"`
	AnimalID        uuid.UUID  `json:"animalId"`
	AnimalTag       string     `json:"animalTag"`
	Today           time.Time  `json:"today"`
	FarrowingID     *uuid.UUID `json:"farrowingId,omitempty"`
	cycle.Timeline
}

// BreedingTimeline computes the milestones of a breeding as of now.
func (s *BreedingService) BreedingTimeline(ctx context.Context, eventID uuid.UUID) (*TimelineView, error) {
	ev, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	animal, err := s.repo.GetAnimal(ctx, ev.AnimalID)
	if err != nil {
		return nil, err
	}

	in := cycle.TimelineInput{
		PregnancyFacts: cycle.PregnancyFacts{
			BreedingDate: ev.BreedingDate,
			Confirmed:    ev.CheckConfirmed || ev.Result == breeding.ResultPregnant,
			Negative:     ev.Result.Negative(),
		},
	}
	view := &TimelineView{BreedingEventID: ev.ID, AnimalID: animal.ID, AnimalTag: animal.Tag}

	f, err := s.repo.GetFarrowingByEvent(ctx, ev.ID)
	switch {
	case err == nil:
		view.FarrowingID = &f.ID
		in.ExpectedFarrowing = &f.ExpectedDate
		in.FarrowedOn = f.ActualDate
		in.LatestBirth, in.LatestWeaning, err = s.repo.LitterDates(ctx, f.ID)
		if err != nil {
			return nil, fmt.Errorf("litter dates: %w", err)
		}
	case errors.Is(err, breeding.ErrFarrowingNotFound):
	default:
		return nil, err
	}

	today := cycle.Today(s.now(), s.location)
	view.Today = today
	view.Timeline = s.policies.For(animal.OrganizationID).BuildTimeline(in, today)
	return view, nil
}
