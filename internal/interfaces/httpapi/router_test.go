package httpapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/game-night/internal/domain/user"
	"github.com/riskibarqy/game-night/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/game-night/internal/platform/id"
	"github.com/riskibarqy/game-night/internal/platform/logging"
	"github.com/riskibarqy/game-night/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const integrationToken = "integration-secret"

type stubVerifier map[string]user.Principal

func (s stubVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	principal, ok := s[token]
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
	}
	return principal, nil
}

type stubPollPublisher struct{}

func (stubPollPublisher) PostPoll(context.Context, usecase.PollRequest) (usecase.PollReceipt, error) {
	return usecase.PollReceipt{MessageID: "msg-1", ChannelID: "chan-1"}, nil
}

func (stubPollPublisher) ClosePoll(context.Context, usecase.ClosePollRequest) error { return nil }

func (stubPollPublisher) PostRecap(context.Context, usecase.RecapRequest) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.NewNop()
	sessionRepo := memory.NewSessionRepository()
	attendanceRepo := memory.NewAttendanceRepository()
	podRepo := memory.NewPodRepository()
	pollRepo := memory.NewPollRepository()
	ids := id.NewUUIDGenerator()

	sessions := usecase.NewSessionService(sessionRepo, attendanceRepo, pollRepo, ids, logger)
	matchups := usecase.NewMatchupService(podRepo)
	handler := NewHandler(Services{
		Sessions:      sessions,
		Attendance:    usecase.NewAttendanceService(sessionRepo, attendanceRepo, nil, logger),
		Matchups:      matchups,
		Suggestions:   usecase.NewPodSuggestionService(sessionRepo, attendanceRepo, podRepo, matchups, usecase.PodSuggestionConfig{}, logger),
		Pods:          usecase.NewPodService(sessionRepo, attendanceRepo, podRepo, nil, ids, logger),
		Announcements: usecase.NewAnnouncementService(sessionRepo, pollRepo, podRepo, sessions, stubPollPublisher{}, logger),
	}, logger)

	verifier := stubVerifier{
		"admin-token": {UserID: "admin-1", Roles: []string{"admin"}},
		"u1-token":    {UserID: "u1"},
		"u2-token":    {UserID: "u2"},
		"u3-token":    {UserID: "u3"},
		"u4-token":    {UserID: "u4"},
	}
	return NewRouter(handler, verifier, RouterConfig{
		AdminRoles:       []string{"admin", "super_admin"},
		IntegrationToken: integrationToken,
	}, logger)
}

type apiResponse struct {
	Data  map[string]any `json:"data"`
	Error map[string]any `json:"error"`
}

func call(t *testing.T, router http.Handler, method, path, token string, body any) (int, apiResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := sonic.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var out apiResponse
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		raw := map[string]any{}
		require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &raw))
		if data, ok := raw["data"].(map[string]any); ok {
			out.Data = data
		}
		if errBody, ok := raw["error"].(map[string]any); ok {
			out.Error = errBody
		}
	}
	return rec.Code, out
}

func createTestSession(t *testing.T, router http.Handler, leagueID string) string {
	t.Helper()

	status, resp := call(t, router, http.MethodPost, "/v1/admin/sessions", "admin-token", map[string]any{
		"league_id":    leagueID,
		"session_date": "2026-03-06",
		"name":         "Friday Commander",
	})
	require.Equal(t, http.StatusCreated, status, resp.Error)
	sessionID, _ := resp.Data["id"].(string)
	require.NotEmpty(t, sessionID)
	return sessionID
}

func TestRouter_HealthzIsPublic(t *testing.T) {
	router := newTestRouter(t)
	status, _ := call(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRouter_AuthAndAdminGates(t *testing.T) {
	router := newTestRouter(t)

	status, _ := call(t, router, http.MethodGet, "/v1/leagues/l1/sessions", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = call(t, router, http.MethodGet, "/v1/leagues/l1/sessions", "bogus", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, resp := call(t, router, http.MethodPost, "/v1/admin/sessions", "u1-token", map[string]any{
		"league_id":    "l1",
		"session_date": "2026-03-06",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "PERMISSION_DENIED", resp.Error["status"])
}

func TestRouter_CreateSessionConflictReportsExistingSession(t *testing.T) {
	router := newTestRouter(t)
	first := createTestSession(t, router, "l1")

	status, resp := call(t, router, http.MethodPost, "/v1/admin/sessions", "admin-token", map[string]any{
		"league_id":    "l1",
		"session_date": "2026-03-13",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, first, resp.Error["existingSessionId"])
}

func TestRouter_CreateSessionValidatesPayload(t *testing.T) {
	router := newTestRouter(t)

	status, _ := call(t, router, http.MethodPost, "/v1/admin/sessions", "admin-token", map[string]any{
		"league_id":    "l1",
		"session_date": "06/03/2026",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, router, http.MethodPost, "/v1/admin/sessions", "admin-token", map[string]any{
		"league_id": "l1",
		"unknown":   true,
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRouter_CheckInLifecycleWithForce(t *testing.T) {
	router := newTestRouter(t)
	sessionID := createTestSession(t, router, "l1")

	status, resp := call(t, router, http.MethodPost, "/v1/sessions/"+sessionID+"/check-in", "u1-token", nil)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "checked_in", resp.Data["outcome"])

	status, resp = call(t, router, http.MethodPost, "/v1/sessions/"+sessionID+"/check-in", "u1-token", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "already_active", resp.Data["outcome"])

	status, _ = call(t, router, http.MethodPost, "/v1/admin/sessions/"+sessionID+"/lock", "admin-token", nil)
	require.Equal(t, http.StatusOK, status)

	status, resp = call(t, router, http.MethodPost, "/v1/sessions/"+sessionID+"/check-in", "u2-token", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Nil(t, resp.Error["requiresForce"])

	status, resp = call(t, router, http.MethodPost, "/v1/admin/sessions/"+sessionID+"/check-in", "admin-token", map[string]any{
		"user_id": "u2",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, true, resp.Error["requiresForce"])

	status, resp = call(t, router, http.MethodPost, "/v1/admin/sessions/"+sessionID+"/check-in", "admin-token", map[string]any{
		"user_id": "u2",
		"force":   true,
	})
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "checked_in", resp.Data["outcome"])
}

func TestRouter_CheckOutUnknownAttendeeIsNotFound(t *testing.T) {
	router := newTestRouter(t)
	sessionID := createTestSession(t, router, "l1")

	status, _ := call(t, router, http.MethodPost, "/v1/sessions/"+sessionID+"/check-out", "u3-token", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_CommitPodRejectsPlayersNotCheckedIn(t *testing.T) {
	router := newTestRouter(t)
	sessionID := createTestSession(t, router, "l1")
	for _, token := range []string{"u1-token", "u2-token", "u3-token"} {
		status, _ := call(t, router, http.MethodPost, "/v1/sessions/"+sessionID+"/check-in", token, nil)
		require.Equal(t, http.StatusCreated, status)
	}

	status, resp := call(t, router, http.MethodPost, "/v1/admin/sessions/"+sessionID+"/pods", "admin-token", map[string]any{
		"player_ids": []string{"u1", "u2", "u9"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, []any{"u9"}, resp.Error["notCheckedIn"])

	status, resp = call(t, router, http.MethodPost, "/v1/admin/sessions/"+sessionID+"/pods", "admin-token", map[string]any{
		"player_ids": []string{"u1", "u2", "u3"},
		"turn_order": []string{"u3", "u1", "u2"},
	})
	require.Equal(t, http.StatusCreated, status, resp.Error)
	participants, _ := resp.Data["participants"].([]any)
	require.Len(t, participants, 3)
	first, _ := participants[0].(map[string]any)
	assert.Equal(t, "u3", first["player_id"])

	status, resp = call(t, router, http.MethodPost, "/v1/admin/sessions/"+sessionID+"/pods", "admin-token", map[string]any{
		"player_ids": []string{"u1", "u2", "u3"},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Len(t, resp.Error["alreadyPlaced"], 3)
}

func TestRouter_SuggestPods(t *testing.T) {
	router := newTestRouter(t)
	sessionID := createTestSession(t, router, "l1")
	for _, token := range []string{"u1-token", "u2-token", "u3-token"} {
		status, _ := call(t, router, http.MethodPost, "/v1/sessions/"+sessionID+"/check-in", token, nil)
		require.Equal(t, http.StatusCreated, status)
	}
	status, _ := call(t, router, http.MethodPost, "/v1/admin/sessions/"+sessionID+"/lock", "admin-token", nil)
	require.Equal(t, http.StatusOK, status)

	status, resp := call(t, router, http.MethodGet, "/v1/admin/sessions/"+sessionID+"/suggest-pods?pod_size=3", "admin-token", nil)
	require.Equal(t, http.StatusOK, status, resp.Error)
	pods, _ := resp.Data["pods"].([]any)
	require.Len(t, pods, 1)
	assert.Equal(t, []any{}, resp.Data["leftover"])
	assert.Equal(t, float64(0), resp.Data["total_score"])

	status, _ = call(t, router, http.MethodGet, "/v1/admin/sessions/"+sessionID+"/suggest-pods?pod_size=abc", "admin-token", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, router, http.MethodGet, "/v1/admin/sessions/"+sessionID+"/suggest-pods?pod_size=7", "admin-token", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = call(t, router, http.MethodGet, "/v1/admin/sessions/missing/suggest-pods", "admin-token", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRouter_PollResponsesRequireIntegrationToken(t *testing.T) {
	router := newTestRouter(t)
	sessionID := createTestSession(t, router, "l1")
	path := "/v1/integrations/sessions/" + sessionID + "/poll-responses"

	status, _ := call(t, router, http.MethodPost, path, "", map[string]any{"user_id": "u1", "attending": true})
	assert.Equal(t, http.StatusUnauthorized, status)

	raw, err := sonic.Marshal(map[string]any{"user_id": "u1", "attending": true})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set(integrationTokenHeader, integrationToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestRouter_MatchupMatrixEmptyLeague(t *testing.T) {
	router := newTestRouter(t)

	status, resp := call(t, router, http.MethodGet, "/v1/admin/leagues/l1/matchup-matrix", "admin-token", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "l1", resp.Data["league_id"])
	assert.Equal(t, []any{}, resp.Data["players"])
}
