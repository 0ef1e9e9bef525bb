// Package httpapi is the HTTP surface: the cron trigger, breeding and housing
// views, event endpoints, health and metrics.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"sow_tracker/internal/app"
	"sow_tracker/internal/domain/breeding"
	"sow_tracker/internal/domain/housing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BreedingAPI is the slice of app.BreedingService the handlers use.
type BreedingAPI interface {
	RecordBreeding(ctx context.Context, in app.BreedingInput) (*breeding.Event, error)
	RecordPregnancyCheck(ctx context.Context, eventID uuid.UUID, outcome breeding.ResultState) (*breeding.Event, error)
	RecordFarrowing(ctx context.Context, eventID uuid.UUID, actual *time.Time, counts breeding.Counts) (*breeding.Farrowing, error)
	CompleteFarrowing(ctx context.Context, farrowingID uuid.UUID, actual time.Time, counts breeding.Counts) (*breeding.Farrowing, error)
	SetPigletStatus(ctx context.Context, pigletID uuid.UUID, status breeding.PigletStatus, on time.Time) (*breeding.Piglet, error)
	BreedingTimeline(ctx context.Context, eventID uuid.UUID) (*app.TimelineView, error)
}

// HousingAPI is the slice of app.HousingService the handlers use.
type HousingAPI interface {
	MoveAnimal(ctx context.Context, animalID, unitID uuid.UUID, at time.Time) (*housing.Interval, error)
	UnitCompliance(ctx context.Context, unitID uuid.UUID) (housing.Compliance, error)
	AnimalConfinement(ctx context.Context, animalID uuid.UUID, from, to time.Time) (float64, error)
}

// LinkTokenIssuer issues Telegram link tokens.
type LinkTokenIssuer interface {
	LinkToken(userID uuid.UUID) string
}

// Pinger reports datastore reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators of the HTTP surface.
type Deps struct {
	CronSecret string
	// APIToken, when set, is required as a bearer token on every POST route.
	// When empty those routes must sit behind an authenticating proxy.
	APIToken   string
	Sweeper    app.ReminderSweeper
	Breeding   BreedingAPI
	Housing    HousingAPI
	Accounts   LinkTokenIssuer
	DB         Pinger
	Metrics    http.Handler
	Logger     *logrus.Entry
}

type server struct {
	Deps
}

// NewHandler wires every route behind request-id and access-log middleware.
func NewHandler(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	d.Logger = d.Logger.WithField("component", "http")
	s := &server{Deps: d}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.healthz)
	if d.Metrics != nil {
		mux.Handle("GET /metrics", d.Metrics)
	}

	mux.Handle("GET /api/cron/notifications", s.requireSecret(http.HandlerFunc(s.cronNotifications)))
	mux.Handle("GET /api/users/{id}/telegram-link", s.requireSecret(http.HandlerFunc(s.telegramLink)))

	mux.Handle("POST /api/breedings", s.requireAPIToken(s.createBreeding))
	mux.HandleFunc("GET /api/breedings/{id}/timeline", s.breedingTimeline)
	mux.Handle("POST /api/breedings/{id}/pregnancy-check", s.requireAPIToken(s.pregnancyCheck))
	mux.Handle("POST /api/farrowings", s.requireAPIToken(s.createFarrowing))
	mux.Handle("POST /api/farrowings/{id}/complete", s.requireAPIToken(s.completeFarrowing))
	mux.Handle("POST /api/piglets/{id}/status", s.requireAPIToken(s.pigletStatus))

	mux.HandleFunc("GET /api/housing/{id}/compliance", s.unitCompliance)
	mux.Handle("POST /api/animals/{id}/move", s.requireAPIToken(s.moveAnimal))
	mux.HandleFunc("GET /api/animals/{id}/confinement", s.animalConfinement)

	return WithRequestID(Logging(d.Logger)(Recover(d.Logger)(mux)))
}
