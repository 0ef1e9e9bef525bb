package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"sow_tracker/internal/app"
	"sow_tracker/internal/domain/breeding"

	"github.com/google/uuid"
)

type breedingRequest struct {
	AnimalID     uuid.UUID       `json:"animalId"`
	BoarID       *uuid.UUID      `json:"boarId"`
	BreedingDate Date            `json:"breedingDate"`
	Method       breeding.Method `json:"method"`
}

type breedingResponse struct {
	ID             uuid.UUID            `json:"id"`
	AnimalID       uuid.UUID            `json:"animalId"`
	BoarID         *uuid.UUID           `json:"boarId,omitempty"`
	BreedingDate   Date                 `json:"breedingDate"`
	Method         breeding.Method      `json:"method"`
	Result         breeding.ResultState `json:"result"`
	CheckConfirmed bool                 `json:"checkConfirmed"`
}

func toBreedingResponse(ev *breeding.Event) breedingResponse {
	resp := breedingResponse{
		ID:             ev.ID,
		AnimalID:       ev.AnimalID,
		BreedingDate:   Date{ev.BreedingDate},
		Method:         ev.Method,
		Result:         ev.Result,
		CheckConfirmed: ev.CheckConfirmed,
	}
	if ev.BoarID.Valid {
		resp.BoarID = &ev.BoarID.UUID
	}
	return resp
}

func (s *server) createBreeding(w http.ResponseWriter, r *http.Request) {
	var req breedingRequest
	if err := readJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	in := app.BreedingInput{
		AnimalID:     req.AnimalID,
		BreedingDate: req.BreedingDate.Time,
		Method:       req.Method,
	}
	if req.BoarID != nil {
		in.BoarID = uuid.NullUUID{UUID: *req.BoarID, Valid: true}
	}
	ev, err := s.Breeding.RecordBreeding(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBreedingResponse(ev))
}

func (s *server) pregnancyCheck(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req struct {
		Result breeding.ResultState `json:"result"`
	}
	if err := readJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	ev, err := s.Breeding.RecordPregnancyCheck(r.Context(), id, req.Result)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBreedingResponse(ev))
}

func (s *server) breedingTimeline(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	view, err := s.Breeding.BreedingTimeline(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type farrowingRequest struct {
	BreedingEventID uuid.UUID `json:"breedingEventId"`
	ActualDate      *Date     `json:"actualDate"`
	breeding.Counts
}

type farrowingResponse struct {
	ID              uuid.UUID  `json:"id"`
	AnimalID        uuid.UUID  `json:"animalId"`
	BreedingEventID *uuid.UUID `json:"breedingEventId,omitempty"`
	ExpectedDate    Date       `json:"expectedDate"`
	ActualDate      *Date      `json:"actualDate,omitempty"`
	breeding.Counts
}

func toFarrowingResponse(f *breeding.Farrowing) farrowingResponse {
	resp := farrowingResponse{
		ID:           f.ID,
		AnimalID:     f.AnimalID,
		ExpectedDate: Date{f.ExpectedDate},
		ActualDate:   datePtr(f.ActualDate),
		Counts:       f.Counts,
	}
	if f.BreedingEventID.Valid {
		resp.BreedingEventID = &f.BreedingEventID.UUID
	}
	return resp
}

func (s *server) createFarrowing(w http.ResponseWriter, r *http.Request) {
	var req farrowingRequest
	if err := readJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	var actual *time.Time
	if req.ActualDate != nil {
		actual = &req.ActualDate.Time
	}
	f, err := s.Breeding.RecordFarrowing(r.Context(), req.BreedingEventID, actual, req.Counts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toFarrowingResponse(f))
}

func (s *server) completeFarrowing(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req struct {
		ActualDate *Date `json:"actualDate"`
		breeding.Counts
	}
	if err := readJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.ActualDate == nil {
		s.fail(w, r, fmt.Errorf("%w: actualDate is required", app.ErrInvalidInput))
		return
	}
	f, err := s.Breeding.CompleteFarrowing(r.Context(), id, req.ActualDate.Time, req.Counts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toFarrowingResponse(f))
}

type pigletResponse struct {
	ID          uuid.UUID             `json:"id"`
	FarrowingID uuid.UUID             `json:"farrowingId"`
	BirthDate   Date                  `json:"birthDate"`
	Status      breeding.PigletStatus `json:"status"`
	WeaningDate *Date                 `json:"weaningDate,omitempty"`
}

func (s *server) pigletStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req struct {
		Status breeding.PigletStatus `json:"status"`
		On     *Date                 `json:"on"`
	}
	if err := readJSON(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	var on time.Time
	if req.On != nil {
		on = req.On.Time
	}
	p, err := s.Breeding.SetPigletStatus(r.Context(), id, req.Status, on)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pigletResponse{
		ID:          p.ID,
		FarrowingID: p.FarrowingID,
		BirthDate:   Date{p.BirthDate},
		Status:      p.Status,
		WeaningDate: datePtr(p.WeaningDate),
	})
}
