package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tripplanner/internal/models"
	"tripplanner/internal/ratelimit"
	"tripplanner/internal/storage"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

type routeOptions struct {
	otelService   string
	chatLimiter   ratelimit.Limiter
	searchLimiter ratelimit.Limiter
	keyFunc       ratelimit.KeyFunc
	demoUser      *models.User
}

// RouteOption configures optional route behavior.
type RouteOption func(*routeOptions)

// WithOTelMiddleware adds OpenTelemetry HTTP instrumentation middleware.
func WithOTelMiddleware(serviceName string) RouteOption {
	return func(o *routeOptions) { o.otelService = serviceName }
}

// WithChatLimiter guards the chat endpoint with limiter.
func WithChatLimiter(limiter ratelimit.Limiter) RouteOption {
	return func(o *routeOptions) { o.chatLimiter = limiter }
}

// WithSearchLimiter guards the flight and accommodation searches with limiter.
func WithSearchLimiter(limiter ratelimit.Limiter) RouteOption {
	return func(o *routeOptions) { o.searchLimiter = limiter }
}

// WithRateLimitKey overrides how callers are identified for rate limiting.
func WithRateLimitKey(keyFunc ratelimit.KeyFunc) RouteOption {
	return func(o *routeOptions) { o.keyFunc = keyFunc }
}

// WithDemoUser sets the user requests run as when authentication is disabled.
func WithDemoUser(user *models.User) RouteOption {
	return func(o *routeOptions) { o.demoUser = user }
}

// SetupRoutes configures the HTTP routes for the API
func SetupRoutes(handlers *Handlers, store storage.Storage, config *models.Config, opts ...RouteOption) *mux.Router {
	o := routeOptions{keyFunc: ratelimit.ClientKey}
	for _, opt := range opts {
		opt(&o)
	}

	router := mux.NewRouter()

	if o.otelService != "" {
		router.Use(otelmux.Middleware(o.otelService,
			otelmux.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health" &&
					r.URL.Path != "/api/v1/health" &&
					r.URL.Path != "/api/v1/openapi.yaml" &&
					r.URL.Path != "/api/v1/docs"
			}),
		))
	}

	var auth mux.MiddlewareFunc
	if config.Security.EnableAuth {
		auth = authMiddleware(store)
	} else {
		auth = demoUserMiddleware(o.demoUser)
	}

	chatGuard := limitMiddleware(o.chatLimiter, o.keyFunc)
	searchGuard := limitMiddleware(o.searchLimiter, o.keyFunc)

	api := router.PathPrefix("/api/v1").Subrouter()

	api.Handle("/chat", chain(http.HandlerFunc(handlers.Chat), chatGuard, auth)).Methods("POST")

	api.Handle("/flights/search", chain(http.HandlerFunc(handlers.SearchFlights), searchGuard)).Methods("GET")
	api.Handle("/accommodations/search", chain(http.HandlerFunc(handlers.SearchAccommodations), searchGuard)).Methods("GET")

	api.HandleFunc("/users", handlers.CreateUser).Methods("POST")
	usersAPI := api.PathPrefix("/users").Subrouter()
	usersAPI.Use(auth)
	usersAPI.HandleFunc("", handlers.ListUsers).Methods("GET")
	usersAPI.HandleFunc("/me", handlers.GetCurrentUser).Methods("GET")

	tripsAPI := api.PathPrefix("/trips").Subrouter()
	tripsAPI.Use(auth)
	tripsAPI.HandleFunc("", handlers.ListTrips).Methods("GET")
	tripsAPI.HandleFunc("", handlers.CreateTrip).Methods("POST")
	tripsAPI.HandleFunc("/{trip_id}", handlers.GetTrip).Methods("GET")
	tripsAPI.HandleFunc("/{trip_id}", handlers.UpdateTrip).Methods("PUT")
	tripsAPI.HandleFunc("/{trip_id}", handlers.DeleteTrip).Methods("DELETE")
	tripsAPI.HandleFunc("/{trip_id}/messages", handlers.ListMessages).Methods("GET")

	api.HandleFunc("/openapi.yaml", handlers.ServeOpenAPISpec).Methods("GET")
	api.HandleFunc("/docs", handlers.ServeSwaggerUI).Methods("GET")

	router.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	router.HandleFunc("/api/v1/health", handlers.HealthCheck).Methods("GET")

	api.PathPrefix("").HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods("OPTIONS")

	if config.Server.CORS.Enabled {
		router.Use(corsMiddleware(config.Server.CORS))
	}

	router.Use(loggingMiddleware)
	router.Use(recoveryMiddleware)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, models.ErrorCodeInvalidRequest, "Method not allowed")
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONError(w, http.StatusNotFound, models.ErrorCodeNotFound, "Resource not found")
	})

	return router
}

// chain wraps h so that mws run in the order given.
func chain(h http.Handler, mws ...mux.MiddlewareFunc) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// limitMiddleware returns the rate limit guard for limiter, or a pass-through
// when limiter is nil.
func limitMiddleware(limiter ratelimit.Limiter, keyFunc ratelimit.KeyFunc) mux.MiddlewareFunc {
	if limiter == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return ratelimit.Middleware(limiter, keyFunc)
}

// corsMiddleware handles Cross-Origin Resource Sharing
func corsMiddleware(corsConfig models.CORSConfig) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(corsConfig.AllowedOrigins) > 0 {
				origin := r.Header.Get("Origin")
				if origin != "" && (contains(corsConfig.AllowedOrigins, "*") || contains(corsConfig.AllowedOrigins, origin)) {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
			}
			if len(corsConfig.AllowedMethods) > 0 {
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(corsConfig.AllowedMethods, ", "))
			}
			if len(corsConfig.AllowedHeaders) > 0 {
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(corsConfig.AllowedHeaders, ", "))
			}
			w.Header().Set("Access-Control-Expose-Headers",
				"X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, X-RateLimit-Reset-Time, Retry-After")
			if corsConfig.MaxAge > 0 {
				w.Header().Set("Access-Control-Max-Age", fmt.Sprintf("%d", corsConfig.MaxAge))
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the response status for request logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr)
	})
}

// recoveryMiddleware handles panics
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("Panic recovered", "error", err, "path", r.URL.Path)
				writeJSONError(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
