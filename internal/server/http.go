package server

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/trivia-api/internal/config"
	"github.com/gokatarajesh/trivia-api/internal/logging"
	"github.com/gokatarajesh/trivia-api/internal/metrics"
	"github.com/gokatarajesh/trivia-api/internal/ratelimit"
	"github.com/gokatarajesh/trivia-api/internal/trivia"
	httperrors "github.com/gokatarajesh/trivia-api/pkg/http/errors"
)

const readyTimeout = 2 * time.Second

// ReadyCheck is one dependency probed by /readyz.
type ReadyCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Dependencies are the handlers and infrastructure the router mounts.
// Metrics and Limiter are optional.
type Dependencies struct {
	Trivia  *trivia.HTTPHandlers
	Metrics *metrics.Metrics
	Limiter *ratelimit.Limiter
	Ready   []ReadyCheck
}

// NewHTTPServer wires the trivia routes plus health, readiness and metrics.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, deps Dependencies) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewHandler(cfg.CORS, logger, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// NewHandler builds the routed, middleware-wrapped handler.
func NewHandler(cors config.CORS, logger zerolog.Logger, deps Dependencies) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/readyz", readyHandler(deps.Ready))

	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics.Handler())
	}

	h := deps.Trivia
	mux.HandleFunc("/categories", h.Categories)
	mux.HandleFunc("/categories/{category_id}/questions", h.QuestionsByCategory)
	mux.HandleFunc("/questions", h.Questions)
	mux.HandleFunc("/questions/{id}", h.DeleteQuestion)
	mux.HandleFunc("/quizzes", h.PlayQuiz)
	mux.HandleFunc("/", h.NotFound)

	mws := []Middleware{RequestID(logger), AccessLog, Recover, CORS(cors)}
	if deps.Metrics != nil {
		mws = append(mws, deps.Metrics.MuxMiddleware(mux))
	}
	if deps.Limiter != nil {
		mws = append(mws, deps.Limiter.Middleware)
	}
	return Chain(mux, mws...)
}

func readyHandler(checks []ReadyCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		for _, check := range checks {
			if err := check.Ping(ctx); err != nil {
				logger := logging.FromContext(r.Context())
				logger.Error().Err(err).Str("dependency", check.Name).Msg("readiness check failed")
				httperrors.RespondServiceUnavailable(w)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true}`))
	}
}
