package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/game-night/internal/config"
	"github.com/riskibarqy/game-night/internal/platform/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStart_AllDisabled(t *testing.T) {
	rt, err := Start(config.Config{ServiceName: "game-night-api", AppEnv: config.EnvDev}, logging.NewNop())
	require.NoError(t, err)
	assert.False(t, rt.tracing)
	assert.Nil(t, rt.profiler)
	assert.Nil(t, rt.pprof)
	require.NoError(t, rt.Shutdown(context.Background()))
}

func TestStart_UptraceWithoutDSNStaysOff(t *testing.T) {
	rt, err := Start(config.Config{UptraceEnabled: true, UptraceDSN: "  "}, logging.NewNop())
	require.NoError(t, err)
	assert.False(t, rt.tracing)
	require.NoError(t, rt.Shutdown(context.Background()))
}

func TestStart_PprofDefaultsAddr(t *testing.T) {
	rt, err := Start(config.Config{PprofEnabled: true, PprofAddr: "127.0.0.1:0"}, logging.NewNop())
	require.NoError(t, err)
	require.NotNil(t, rt.pprof)
	assert.Equal(t, "127.0.0.1:0", rt.pprof.Addr)
	require.NoError(t, rt.Shutdown(context.Background()))

	rt = &Runtime{logger: logging.NewNop()}
	rt.startPprof(config.Config{PprofEnabled: true})
	assert.Equal(t, defaultPprofAddr, rt.pprof.Addr)
	require.NoError(t, rt.Shutdown(context.Background()))
}

func TestNilRuntimeShutdown(t *testing.T) {
	var rt *Runtime
	assert.NoError(t, rt.Shutdown(context.Background()))
}

func TestPprofMux_ServesIndex(t *testing.T) {
	rec := httptest.NewRecorder()
	pprofMux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
