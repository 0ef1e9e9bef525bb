// internal/app/housing_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"sow_tracker/internal/domain/housing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// HousingService moves animals and evaluates housing compliance.
type HousingService struct {
	repo    housing.Repository
	minSqFt float64
	now     func() time.Time
	logger  *logrus.Entry
}

func NewHousingService(repo housing.Repository, minSqFt float64, now func() time.Time, logger *logrus.Entry) *HousingService {
	if minSqFt <= 0 {
		minSqFt = housing.DefaultMinSqFtPerAnimal
	}
	if now == nil {
		now = time.Now
	}
	return &HousingService{repo: repo, minSqFt: minSqFt, now: now, logger: logger.WithField("component", "housing")}
}

// MoveAnimal closes the animal's current assignment and opens one in unitID.
func (s *HousingService) MoveAnimal(ctx context.Context, animalID, unitID uuid.UUID, at time.Time) (*housing.Interval, error) {
	if at.IsZero() {
		at = s.now()
	}
	if _, err := s.repo.GetUnit(ctx, unitID); err != nil {
		return nil, err
	}
	iv, err := s.repo.MoveAnimal(ctx, animalID, unitID, at)
	if err != nil {
		return nil, err
	}
	s.logger.WithFields(logrus.Fields{
		"animal_id":       animalID,
		"housing_unit_id": unitID,
		"moved_in":        at,
	}).Info("Animal moved")
	return iv, nil
}

// UnitCompliance evaluates the floor-space rule for one unit.
func (s *HousingService) UnitCompliance(ctx context.Context, unitID uuid.UUID) (housing.Compliance, error) {
	u, err := s.repo.GetUnit(ctx, unitID)
	if err != nil {
		return housing.Compliance{}, err
	}
	return housing.Evaluate(*u, s.minSqFt), nil
}

// AnimalConfinement returns the hours the animal spent in confining units within [from, to].
func (s *HousingService) AnimalConfinement(ctx context.Context, animalID uuid.UUID, from, to time.Time) (float64, error) {
	if from.IsZero() || to.IsZero() || !to.After(from) {
		return 0, fmt.Errorf("%w: window end must follow window start", ErrInvalidInput)
	}
	intervals, err := s.repo.ListIntervals(ctx, animalID, from, to)
	if err != nil {
		return 0, fmt.Errorf("list housing intervals: %w", err)
	}
	return housing.ConfinementHours(intervals, animalID, from, to, s.now()), nil
}
