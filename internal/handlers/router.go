package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/simfolio/backend/docs"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Handlers groups every HTTP handler served by the router.
type Handlers struct {
	Simulations *SimulationHandler
	Portfolio   *PortfolioHandler
	Timeline    *TimelineHandler
}

// RouterOptions tunes the middleware chain. A zero RequestTimeout disables
// the per-request deadline; a nil Health always reports healthy.
type RouterOptions struct {
	RequestTimeout time.Duration
	Health         func() error
	Logger         *zap.Logger
}

// NewRouter wires every route. CORS is applied outside the router so
// preflight requests are answered for any path.
func NewRouter(h Handlers, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := mux.NewRouter()
	router.Use(timeoutMiddleware(opts.RequestTimeout), accessLog(logger))
	router.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if opts.Health != nil {
			if err := opts.Health(); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods(http.MethodGet)
	router.PathPrefix("/swagger/").Handler(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Routes share one router: a mux subrouter copies its prefix matcher into
	// every route, which clears the method mismatch of earlier routes and
	// turns a wrong method into a 404.
	api := &prefixed{router: router, prefix: "/api"}
	api.HandleFunc("/simulations", h.Simulations.HandleCreate).Methods(http.MethodPost)
	api.HandleFunc("/simulations", h.Simulations.HandleList).Methods(http.MethodGet)
	api.HandleFunc("/simulations/{id}", h.Simulations.HandleGet).Methods(http.MethodGet)
	api.HandleFunc("/simulations/{id}", h.Simulations.HandleDelete).Methods(http.MethodDelete)
	api.HandleFunc("/simulations/{id}/history", h.Simulations.HandleHistory).Methods(http.MethodGet)

	api.HandleFunc("/simulations/{id}/balance", h.Portfolio.HandleBalance).Methods(http.MethodPost)
	api.HandleFunc("/simulations/{id}/purchase", h.Portfolio.HandlePurchase).Methods(http.MethodPost)
	api.HandleFunc("/simulations/{id}/sell", h.Portfolio.HandleSell).Methods(http.MethodPost)
	api.HandleFunc("/simulations/{id}/holdings", h.Portfolio.HandleHoldings).Methods(http.MethodGet)
	api.HandleFunc("/simulations/{id}/holdings/refresh", h.Portfolio.HandleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/simulations/{id}/summary", h.Portfolio.HandleSummary).Methods(http.MethodGet)

	api.HandleFunc("/simulations/{id}/advance", h.Timeline.HandleCanAdvance).Methods(http.MethodGet)
	api.HandleFunc("/simulations/{id}/advance", h.Timeline.HandleAdvance).Methods(http.MethodPost)
	api.HandleFunc("/simulations/{id}/snapshot", h.Timeline.HandleSnapshotInfo).Methods(http.MethodGet)
	api.HandleFunc("/simulations/{id}/snapshot", h.Timeline.HandleCapture).Methods(http.MethodPost)
	api.HandleFunc("/simulations/{id}/snapshot/restore", h.Timeline.HandleRestore).Methods(http.MethodPost)

	return corsMiddleware(router)
}

type prefixed struct {
	router *mux.Router
	prefix string
}

func (p *prefixed) HandleFunc(path string, f func(http.ResponseWriter, *http.Request)) *mux.Route {
	return p.router.HandleFunc(p.prefix+path, f)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func timeoutMiddleware(timeout time.Duration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		if timeout <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func accessLog(logger *zap.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
