package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gradientlab/descent/internal/config"
	"github.com/gradientlab/descent/internal/optimization/runner"
)

// testConfig creates a test configuration with default values
func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{
		Environment: "test",
	}

	cfg.HTTP.Port = 8080
	cfg.HTTP.ReadTimeout = 30 * time.Second
	cfg.HTTP.WriteTimeout = 30 * time.Second

	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "console"
	cfg.Logging.Output = "stdout"

	cfg.Optimization.DefaultInitialStep = 1.0
	cfg.Optimization.DefaultStepDecay = 0.5
	cfg.Optimization.DefaultStepIncrease = 1.2
	cfg.Optimization.DefaultTolerance = 1e-6
	cfg.Optimization.MaxIterationsCap = 100000

	return cfg
}

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	srv := NewServer(testConfig(t), zap.NewNop())
	t.Cleanup(func() { srv.Close() })

	r := chi.NewRouter()
	srv.RegisterRoutes(r)
	return r
}

func postRun(t *testing.T, r http.Handler, body map[string]interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestStartRunValidation(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name string
		body map[string]interface{}
		kind string
	}{
		{
			name: "parse error",
			body: map[string]interface{}{
				"formula": "x1 +", "numVars": 1, "startPoint": "0",
			},
			kind: "parse",
		},
		{
			name: "unbound identifier",
			body: map[string]interface{}{
				"formula": "x1 + y", "numVars": 1, "startPoint": "0",
			},
			kind: "invalid_expression",
		},
		{
			name: "wrong start point arity",
			body: map[string]interface{}{
				"formula": "x1^2 + x2^2", "numVars": 2, "startPoint": "1, 2, 3",
			},
			kind: "dimension_mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postRun(t, r, tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.kind, body["kind"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestStartRunRejectsBadJSON(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartRunRejectsOversizedIterationCap(t *testing.T) {
	r := newTestRouter(t)

	w := postRun(t, r, map[string]interface{}{
		"formula": "x1^2", "numVars": 1, "startPoint": "2",
		"maxIterations": 1000000,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestRunLifecycleOverHTTP(t *testing.T) {
	r := newTestRouter(t)

	w := postRun(t, r, map[string]interface{}{
		"formula":       "x1^2 + x2^2",
		"numVars":       2,
		"startPoint":    "2, 2",
		"initialStep":   1.0,
		"stepDecay":     0.5,
		"stepIncrease":  1.2,
		"tolerance":     1e-6,
		"maxIterations": 1000,
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	var started map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	id := started["id"]
	require.NotEmpty(t, id)

	var status runner.RunStatus
	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+id, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
			return false
		}
		return status.Status != runner.StatusRunning
	}, 5*time.Second, time.Millisecond)

	assert.Equal(t, runner.StatusCompleted, status.Status)
	require.NotNil(t, status.Result)
	assert.False(t, status.Result.TerminatedEarly)
	assert.InDelta(t, 0, status.Result.Value, 1e-6)
	assert.Len(t, status.Result.History, status.Result.Iterations+1)

	// A stop request on a finished run is accepted and harmless.
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/runs/"+id, nil)
	del := httptest.NewRecorder()
	r.ServeHTTP(del, req)
	assert.Equal(t, http.StatusOK, del.Code)
}

func TestRunUsesConfiguredDefaults(t *testing.T) {
	r := newTestRouter(t)

	// Only the required fields; the step-control parameters come from
	// configuration and maxIterations defaults to 1000.
	w := postRun(t, r, map[string]interface{}{
		"formula": "x1^2", "numVars": 1, "startPoint": "2",
	})
	require.Equal(t, http.StatusAccepted, w.Code)

	var started map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))

	require.Eventually(t, func() bool {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/"+started["id"], nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		var status runner.RunStatus
		if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
			return false
		}
		return status.Status == runner.StatusCompleted
	}, 5*time.Second, time.Millisecond)
}

func TestUnknownRunIs404(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/runs/no-such-run", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/runs/no-such-run", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
