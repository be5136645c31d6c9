package status

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
	"github.com/oshokin/still-alive/internal/logger"
)

// Service is the part of the monitor the HTTP API reads and drives.
type Service interface {
	CheckIn(ctx context.Context, actor *domain.Actor) (domain.CheckInEvent, domain.Overview)
	Overview(ctx context.Context) domain.Overview
	Contacts(ctx context.Context) []*domain.Contact
}

// statusResponse is the JSON form of domain.Overview.
type statusResponse struct {
	Tier              string     `json:"tier"`
	HasCheckedInToday bool       `json:"has_checked_in_today"`
	ElapsedDays       *int       `json:"elapsed_days,omitempty"`
	LastCheckIn       *time.Time `json:"last_check_in,omitempty"`
	Phase             string     `json:"phase"`
	NextReminder      *time.Time `json:"next_reminder,omitempty"`
	NextEmergency     *time.Time `json:"next_emergency,omitempty"`
	Contacts          int        `json:"contacts"`
	RemainingSlots    int        `json:"remaining_slots"`
}

// checkInResponse is returned by POST /api/checkin.
type checkInResponse struct {
	CheckIn domain.CheckInEvent `json:"check_in"`
	Status  statusResponse      `json:"status"`
}

// NewHandler builds the HTTP routes.
func NewHandler(svc Service) http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", healthHandler).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, toResponse(svc.Overview(r.Context())))
	}).Methods(http.MethodGet)
	api.HandleFunc("/contacts", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, svc.Contacts(r.Context()))
	}).Methods(http.MethodGet)
	api.HandleFunc("/checkin", func(w http.ResponseWriter, r *http.Request) {
		actor := &domain.Actor{Hostname: r.RemoteAddr, Username: r.Header.Get("X-Still-Alive-User")}
		event, overview := svc.CheckIn(r.Context(), actor)

		writeJSON(r.Context(), w, http.StatusOK, checkInResponse{CheckIn: event, Status: toResponse(overview)})
	}).Methods(http.MethodPost)

	return router
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func toResponse(o domain.Overview) statusResponse {
	resp := statusResponse{
		Tier:              o.Status.Tier.String(),
		HasCheckedInToday: o.Status.HasCheckedInToday,
		Phase:             o.Phase,
		Contacts:          o.Contacts,
		RemainingSlots:    o.RemainingSlots,
	}

	if o.Status.LastCheckIn != nil {
		elapsed := o.Status.ElapsedDays
		resp.ElapsedDays = &elapsed
		resp.LastCheckIn = &o.Status.LastCheckIn.Timestamp
	}

	if !o.NextReminder.IsZero() {
		resp.NextReminder = &o.NextReminder
	}

	if !o.NextEmergency.IsZero() {
		resp.NextEmergency = &o.NextEmergency
	}

	return resp
}

func writeJSON(ctx context.Context, w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.WarnKV(ctx, "Failed to write response", "error", err)
	}
}
