package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/trivia-api/internal/config"
	"github.com/gokatarajesh/trivia-api/internal/db/repository"
	"github.com/gokatarajesh/trivia-api/internal/metrics"
	"github.com/gokatarajesh/trivia-api/internal/ratelimit"
	"github.com/gokatarajesh/trivia-api/internal/trivia"
)

var defaultCORS = config.CORS{
	AllowedOrigins: []string{"*"},
	AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
	AllowedHeaders: []string{"Content-Type", "Authorization"},
	MaxAge:         3600,
}

type memCounter struct {
	mu sync.Mutex
	n  map[string]int64
}

func (c *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.n == nil {
		c.n = map[string]int64{}
	}
	c.n[key]++
	return c.n[key], nil
}

func newDeps(logger zerolog.Logger) (Dependencies, *repository.MemoryStore) {
	store := repository.NewMemoryStore(repository.DefaultCategories()...)
	m := metrics.New()
	svc := trivia.NewService(store, trivia.ServiceOptions{Recorder: m})
	return Dependencies{
		Trivia:  trivia.NewHTTPHandlers(svc, trivia.PageParser{DefaultSize: 10, MaxSize: 100}, logger),
		Metrics: m,
		Ready:   []ReadyCheck{{Name: "store", Ping: store.Ping}},
	}, store
}

func serve(h http.Handler, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	deps, _ := newDeps(zerolog.Nop())
	h := NewHandler(defaultCORS, zerolog.Nop(), deps)

	rec := serve(h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyz(t *testing.T) {
	deps, _ := newDeps(zerolog.Nop())
	h := NewHandler(defaultCORS, zerolog.Nop(), deps)

	rec := serve(h, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	deps.Ready = append(deps.Ready, ReadyCheck{Name: "redis", Ping: func(context.Context) error {
		return errors.New("dial tcp: connection refused")
	}})
	var buf bytes.Buffer
	h = NewHandler(defaultCORS, zerolog.New(&buf), deps)

	rec = serve(h, http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"service unavailable","error":"503"}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, buf.String(), "readiness check failed")
	assert.Contains(t, buf.String(), `"dependency":"redis"`)
}

func TestTriviaRoutesMounted(t *testing.T) {
	deps, store := newDeps(zerolog.Nop())
	h := NewHandler(defaultCORS, zerolog.Nop(), deps)

	rec := serve(h, http.MethodPost, "/questions",
		`{"question": "Largest planet?", "answer": "Jupiter", "category": 1, "difficulty": 1}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	all, err := store.ListQuestions(context.Background(), trivia.QuestionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)

	for _, target := range []string{"/categories", "/questions", "/categories/1/questions"} {
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, target, "", nil).Code, target)
	}

	rec = serve(h, http.MethodPost, "/quizzes", `{"previous_questions": []}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodDelete, "/questions/1", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodGet, "/does/not/exist", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"resource not found","error":"404"}`, rec.Body.String())
}

func TestCORSWildcard(t *testing.T) {
	deps, _ := newDeps(zerolog.Nop())
	h := NewHandler(defaultCORS, zerolog.Nop(), deps)

	rec := serve(h, http.MethodGet, "/categories", "", map[string]string{"Origin": "http://localhost:3000"})
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "GET, POST, PATCH, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = serve(h, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"), "error responses carry CORS headers too")
}

func TestCORSPreflight(t *testing.T) {
	deps, _ := newDeps(zerolog.Nop())
	h := NewHandler(defaultCORS, zerolog.Nop(), deps)

	rec := serve(h, http.MethodOptions, "/questions/5", "", map[string]string{
		"Origin":                        "http://localhost:3000",
		"Access-Control-Request-Method": "DELETE",
	})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, rec.Body.String())
}

func TestCORSAllowList(t *testing.T) {
	cors := defaultCORS
	cors.AllowedOrigins = []string{"https://quiz.example"}
	cors.AllowCredentials = true

	deps, _ := newDeps(zerolog.Nop())
	h := NewHandler(cors, zerolog.Nop(), deps)

	rec := serve(h, http.MethodGet, "/categories", "", map[string]string{"Origin": "https://quiz.example"})
	assert.Equal(t, "https://quiz.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))

	rec = serve(h, http.MethodGet, "/categories", "", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDAndAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	deps, _ := newDeps(logger)
	h := NewHandler(defaultCORS, logger, deps)

	rec := serve(h, http.MethodGet, "/categories", "", map[string]string{HeaderRequestID: "req-123"})
	assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))

	var line map[string]any
	require.NoError(t, json.Unmarshal(lastLine(t, buf.Bytes()), &line))
	assert.Equal(t, "http request", line["message"])
	assert.Equal(t, "req-123", line["request_id"])
	assert.Equal(t, "/categories", line["path"])
	assert.Equal(t, float64(200), line["status"])

	rec = serve(h, http.MethodGet, "/categories", "", nil)
	assert.Len(t, rec.Header().Get(HeaderRequestID), 36)

	rec = serve(h, http.MethodGet, "/categories", "", map[string]string{HeaderRequestID: strings.Repeat("x", 500)})
	assert.Len(t, rec.Header().Get(HeaderRequestID), 36, "oversized ids are replaced")
}

func TestRecover(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}), RequestID(logger), AccessLog, Recover)

	rec := serve(h, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"internal server error","error":"500"}`, rec.Body.String())
	assert.Contains(t, buf.String(), "handler panicked")
	assert.Contains(t, buf.String(), `"status":500`)
}

func TestMetricsEndpoint(t *testing.T) {
	deps, _ := newDeps(zerolog.Nop())
	h := NewHandler(defaultCORS, zerolog.Nop(), deps)

	serve(h, http.MethodPost, "/questions", `{"question": "Q", "answer": "A", "category": 2, "difficulty": 1}`, nil)
	serve(h, http.MethodGet, "/categories", "", nil)

	rec := serve(h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "trivia_questions_created_total 1")
	assert.Contains(t, string(body), `trivia_http_requests_total{method="GET",route="/categories",status="200"} 1`)
}

func TestRateLimit(t *testing.T) {
	deps, _ := newDeps(zerolog.Nop())
	deps.Limiter = ratelimit.NewLimiter(&memCounter{}, 2, time.Minute, zerolog.Nop())
	h := NewHandler(defaultCORS, zerolog.Nop(), deps)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/categories", "", nil).Code)
	}
	rec := serve(h, http.MethodGet, "/categories", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.JSONEq(t, `{"success":false,"message":"too many requests","error":"429"}`, rec.Body.String())

	exposed := httptest.NewRecorder()
	deps.Metrics.Handler().ServeHTTP(exposed, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, exposed.Body.String(), `trivia_http_requests_total{method="GET",route="/categories",status="200"} 2`)
	assert.Contains(t, exposed.Body.String(), `trivia_http_requests_total{method="GET",route="/categories",status="429"} 1`)
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		order = append(order, "handler")
	}), mark("a"), mark("b"))
	serve(h, http.MethodGet, "/", "", nil)

	assert.Equal(t, []string{"a", "b", "handler"}, order)
}

func lastLine(t *testing.T, out []byte) []byte {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	require.NotEmpty(t, lines)
	return lines[len(lines)-1]
}
