package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"sow_tracker/internal/app"
	"sow_tracker/internal/domain/breeding"
	"sow_tracker/internal/domain/housing"
	"sow_tracker/internal/domain/user"

	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20 // 1 MiB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// fail maps a service error onto a status code. Unknown errors are logged
// and reported as 500 without detail.
func (s *server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.Logger.WithField("rid", RequestIDFromContext(r.Context())).WithError(err).Error("request failed")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, breeding.ErrAnimalNotFound),
		errors.Is(err, breeding.ErrEventNotFound),
		errors.Is(err, breeding.ErrFarrowingNotFound),
		errors.Is(err, breeding.ErrPigletNotFound),
		errors.Is(err, housing.ErrUnitNotFound),
		errors.Is(err, user.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrAnimalNotBreedable),
		errors.Is(err, breeding.ErrOpenBreeding),
		errors.Is(err, breeding.ErrFarrowingExists),
		errors.Is(err, breeding.ErrFarrowingAlreadyCompleted),
		errors.Is(err, breeding.ErrInvalidPigletTransition),
		errors.Is(err, breeding.ErrInvalidResultTransition),
		errors.Is(err, housing.ErrAlreadyHoused),
		errors.Is(err, housing.ErrMoveBeforeOpen):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed body: %v", app.ErrInvalidInput, err)
	}
	return nil
}

func pathID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", app.ErrInvalidInput, r.PathValue("id"))
	}
	return id, nil
}

// Date is a civil date in YYYY-MM-DD form.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("date %q: want YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(dateLayout))
}

func datePtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	return &Date{*t}
}
