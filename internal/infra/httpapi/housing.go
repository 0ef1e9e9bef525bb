package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"sow_tracker/internal/app"
	"sow_tracker/internal/domain/housing"

	"github.com/google/uuid"
)

func (s *server) unitCompliance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.Housing.UnitCompliance(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

type moveResponse struct {
	ID            uuid.UUID        `json:"id"`
	AnimalID      uuid.UUID        `json:"animalId"`
	HousingUnitID uuid.UUID        `json:"housingUnitId"`
	UnitType      housing.UnitType `json:"unitType"`
	MovedIn       time.Time        `json:"movedIn"`
}

func (s *server) moveAnimal(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req struct {
		HousingUnitID uuid.UUID  `json:"housingUnitId"`
		At            *time.Time `json:"at"`
	}
	if err := readJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	var at time.Time
	if req.At != nil {
		at = *req.At
	}
	iv, err := s.Housing.MoveAnimal(r.Context(), id, req.HousingUnitID, at)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, moveResponse{
		ID:            iv.ID,
		AnimalID:      iv.AnimalID,
		HousingUnitID: iv.HousingUnitID,
		UnitType:      iv.UnitType,
		MovedIn:       iv.MovedIn,
	})
}

type confinementResponse struct {
	AnimalID uuid.UUID `json:"animalId"`
	From     time.Time `json:"from"`
	To       time.Time `json:"to"`
	Hours    float64   `json:"hours"`
}

// animalConfinement reports hours spent in confining units between the
// RFC 3339 "from" and "to" query parameters.
func (s *server) animalConfinement(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	from, err := queryTime(r, "from")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	to, err := queryTime(r, "to")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	hours, err := s.Housing.AnimalConfinement(r.Context(), id, from, to)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, confinementResponse{AnimalID: id, From: from, To: to, Hours: hours})
}

func queryTime(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be an RFC 3339 timestamp", app.ErrInvalidInput, name)
	}
	return t, nil
}
