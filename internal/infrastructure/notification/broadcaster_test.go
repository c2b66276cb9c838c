package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/game-night/internal/domain/attendance"
	"github.com/riskibarqy/game-night/internal/domain/pod"
	"github.com/riskibarqy/game-night/internal/platform/logging"
	"github.com/riskibarqy/game-night/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_DeliversAttendanceEvent(t *testing.T) {
	t.Parallel()

	received := make(chan map[string]any, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := jsoniter.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode event: %v", err)
		}
		received <- body
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	b, err := NewBroadcaster(BroadcasterConfig{WebhookURL: srv.URL, Workers: 1}, logging.NewNop())
	require.NoError(t, err)
	defer func() { _ = b.Close(time.Second) }()

	ctx, cancel := context.WithCancel(context.Background())
	b.PublishAttendanceUpdated(ctx, usecase.AttendanceEvent{
		SessionID: "ses-1",
		LeagueID:  "league-1",
		UserID:    "u1",
		Outcome:   attendance.OutcomeCheckedIn,
		Source:    attendance.SourceSelf,
		IsActive:  true,
		At:        time.Date(2026, 3, 6, 19, 0, 0, 0, time.UTC),
	})
	// delivery must survive the request context ending
	cancel()

	select {
	case body := <-received:
		assert.Equal(t, EventAttendanceUpdated, body["type"])
		assert.Equal(t, "ses-1", body["session_id"])
		data, ok := body["data"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "u1", data["user_id"])
		assert.Equal(t, "checked_in", data["action"])
		assert.Equal(t, "self", data["source"])
	case <-time.After(3 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestBroadcaster_DeliveryFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	done := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		done <- struct{}{}
	}))
	defer srv.Close()

	b, err := NewBroadcaster(BroadcasterConfig{WebhookURL: srv.URL}, logging.NewNop())
	require.NoError(t, err)

	b.PublishPodCreated(context.Background(), pod.Pod{ID: "pod-1", SessionID: "ses-1"})

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("webhook was not called")
	}
	require.NoError(t, b.Close(time.Second))
}

func TestBroadcaster_WithoutWebhookIsNoop(t *testing.T) {
	t.Parallel()

	b, err := NewBroadcaster(BroadcasterConfig{}, logging.NewNop())
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		b.PublishPodCreated(context.Background(), pod.Pod{ID: "pod-1"})
	})
	require.NoError(t, b.Close(0))
}
