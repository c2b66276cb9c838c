package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/riskibarqy/game-night/internal/config"
	"github.com/riskibarqy/game-night/internal/infrastructure/notification"
	"github.com/riskibarqy/game-night/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

func memoryConfig() config.Config {
	return config.Config{
		AppEnv:              config.EnvDev,
		HTTPAddr:            ":0",
		ReadTimeout:         time.Second,
		WriteTimeout:        time.Second,
		RequestTimeout:      time.Second,
		StorageDriver:       config.StorageMemory,
		CORSAllowedOrigins:  []string{"*"},
		AnubisBaseURL:       "http://127.0.0.1:1",
		AnubisIntrospectURL: "/v1/auth/introspect",
		AnubisTimeout:       time.Second,
		AdminRoles:          []string{"admin"},
		RealtimeWorkers:     1,
		PodDefaultSize:      4,
		PodSearchMaxSwaps:   100,
		PodSearchTimeBudget: 50 * time.Millisecond,
	}
}

func TestNewHTTPServer_MemoryStorage(t *testing.T) {
	srv, err := NewHTTPServer(context.Background(), memoryConfig(), logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, srv.Close()) })

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/leagues/l1/sessions", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNewHTTPServer_RequiresAddr(t *testing.T) {
	cfg := memoryConfig()
	cfg.HTTPAddr = ""

	_, err := NewHTTPServer(context.Background(), cfg, logging.NewNop())
	require.Error(t, err)
}

func TestNewPollPublisher_DisabledWithoutBaseURL(t *testing.T) {
	publisher := newPollPublisher(memoryConfig(), logging.NewNop())
	require.IsType(t, notification.DisabledPollPublisher{}, publisher)
}
