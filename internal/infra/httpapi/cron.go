package httpapi

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"sow_tracker/internal/domain/user"

	"github.com/google/uuid"
)

// requireSecret admits requests carrying "Authorization: Bearer <CronSecret>".
// An empty configured secret rejects everything.
func (s *server) requireSecret(next http.Handler) http.Handler {
	return requireBearer(s.CronSecret, next)
}

// requireAPIToken guards the write endpoints with APIToken. With no token
// configured they rely on the authenticating proxy in front of the service.
func (s *server) requireAPIToken(next http.HandlerFunc) http.Handler {
	if s.APIToken == "" {
		return next
	}
	return requireBearer(s.APIToken, next)
}

func requireBearer(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || secret == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// cronNotifications runs one reminder sweep. The summary is returned in both
// the 200 and the 500 case; 500 means no category made progress.
func (s *server) cronNotifications(w http.ResponseWriter, r *http.Request) {
	scope := user.All()
	if raw := r.URL.Query().Get("organization_id"); raw != "" {
		org, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid organization_id")
			return
		}
		scope = user.OrganizationScope(org)
	}

	summary := s.Sweeper.RunSweep(r.Context(), scope)
	status := http.StatusOK
	if summary.Failed() {
		status = http.StatusInternalServerError
		s.Logger.WithField("errors", summary.Errors).Error("reminder sweep failed in every category")
	}
	writeJSON(w, status, summary)
}

type linkResponse struct {
	UserID  uuid.UUID `json:"userId"`
	Token   string    `json:"token"`
	Command string    `json:"command"`
}

func (s *server) telegramLink(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	token := s.Accounts.LinkToken(id)
	writeJSON(w, http.StatusOK, linkResponse{
		UserID:  id,
		Token:   token,
		Command: "/link " + id.String() + " " + token,
	})
}
