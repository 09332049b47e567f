package observability

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLoggerLevelsFollowStatus(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	r := chi.NewRouter()
	r.Use(InjectLogger(zap.New(core)))
	r.Use(RequestLogger())
	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		FromContext(r.Context()).Debug("inside handler")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/missing/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing/7", nil))

	inside := logs.FilterMessage("inside handler").All()
	require.Len(t, inside, 1)
	require.Equal(t, "/ok", inside[0].ContextMap()["path"])

	done := logs.FilterMessage("request completed").All()
	require.Len(t, done, 2)
	require.Equal(t, zapcore.InfoLevel, done[0].Level)
	require.Equal(t, int64(2), done[0].ContextMap()["bytes"])
	require.Equal(t, zapcore.WarnLevel, done[1].Level)
	require.Equal(t, "/missing/{id}", done[1].ContextMap()["route"])
}

func TestRecoveryWritesJSONEnvelope(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.ErrorLevel)
	h := Recovery(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "internal_server_error", body["error"])
	require.Equal(t, 1, logs.FilterMessage("panic recovered").Len())
}

func TestFromContextDefaultsToNoop(t *testing.T) {
	t.Parallel()

	require.NotNil(t, FromContext(nil)) //nolint:staticcheck
	require.NotNil(t, FromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context()))
}

func TestNewLoggerAcceptsUnknownLevel(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("shouting")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	require.False(t, logger.Core().Enabled(zapcore.DebugLevel))

	logger, err = NewLogger("debug")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	require.Equal(t, zapcore.InfoLevel, ParseLevel(""))
	require.Equal(t, zapcore.WarnLevel, ParseLevel(" WARN "))
	require.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	require.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestNewLoggerConsole(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("warn", WithConsole())
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	require.True(t, logger.Core().Enabled(zapcore.WarnLevel))
}
