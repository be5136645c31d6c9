package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/still-alive/internal/domain/liveness"
)

type fakeService struct {
	checkIns int
	last     *domain.CheckInEvent
}

func (f *fakeService) CheckIn(_ context.Context, _ *domain.Actor) (domain.CheckInEvent, domain.Overview) {
	f.checkIns++

	event := domain.CheckInEvent{ID: "c-1", Timestamp: time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)}
	f.last = &event

	return event, f.Overview(context.Background())
}

func (f *fakeService) Overview(context.Context) domain.Overview {
	if f.last == nil {
		return domain.Overview{
			Status:         domain.Status{ElapsedDays: domain.NeverCheckedIn, Tier: domain.TierCritical},
			Phase:          "idle",
			RemainingSlots: 3,
		}
	}

	return domain.Overview{
		Status:         domain.Status{LastCheckIn: f.last, HasCheckedInToday: true, Tier: domain.TierFresh},
		Phase:          "reminder_pending",
		NextReminder:   f.last.Timestamp.Add(24 * time.Hour),
		RemainingSlots: 3,
	}
}

func (f *fakeService) Contacts(context.Context) []*domain.Contact {
	return []*domain.Contact{{ID: "a", Name: "Ann", Email: "ann@example.com", Channels: domain.NewChannelSet(domain.ChannelEmail)}}
}

func serve(t *testing.T, h http.Handler, method, path string) (int, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))

	var body map[string]any
	if rec.Code == http.StatusOK && path != "/api/contacts" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}

	return rec.Code, body
}

// TestHandler_Status checks status before and after an HTTP check-in.
func TestHandler_Status(t *testing.T) {
	t.Parallel()

	svc := &fakeService{}
	h := NewHandler(svc)

	code, body := serve(t, h, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "critical", body["tier"])
	require.NotContains(t, body, "elapsed_days")
	require.NotContains(t, body, "next_reminder")

	code, body = serve(t, h, http.MethodPost, "/api/checkin")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1, svc.checkIns)
	require.Equal(t, "c-1", body["check_in"].(map[string]any)["id"])

	code, body = serve(t, h, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "fresh", body["tier"])
	require.Equal(t, true, body["has_checked_in_today"])
	require.Equal(t, float64(0), body["elapsed_days"])
	require.Equal(t, "2026-07-02T09:00:00Z", body["next_reminder"])
}

// TestHandler_Routes checks health, contacts and method matching.
func TestHandler_Routes(t *testing.T) {
	t.Parallel()

	h := NewHandler(&fakeService{})

	code, body := serve(t, h, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "healthy", body["status"])

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/contacts", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list []domain.Contact
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	require.True(t, list[0].Channels.Has(domain.ChannelEmail))

	code, _ = serve(t, h, http.MethodGet, "/api/checkin")
	require.Equal(t, http.StatusMethodNotAllowed, code)
}
