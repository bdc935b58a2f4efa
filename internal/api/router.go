package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/wonny/tradejournal/internal/api/handlers"
	"github.com/wonny/tradejournal/internal/api/metrics"
	"github.com/wonny/tradejournal/pkg/logger"
)

// ServiceName identifies the API in health responses
const ServiceName = "tradejournal-api"

// Dependencies bundles everything the router mounts
type Dependencies struct {
	Analytics *handlers.AnalyticsHandler
	Risk      *handlers.RiskHandler
	Events    *handlers.EventsHandler // nil = no websocket route
	Health    *handlers.HealthHandler
	Metrics   *metrics.Metrics // nil = no /metrics
	Limiter   Limiter          // nil = unlimited

	CORSOrigins []string
	Logger      *logger.Logger
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(deps Dependencies) http.Handler {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	if deps.Health == nil {
		deps.Health = handlers.NewHealthHandler(ServiceName, nil)
	}
	r := mux.NewRouter()

	// Health check
	r.HandleFunc("/health", deps.Health.Health).Methods("GET")
	if deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods("GET")
	}

	// API
	api := r.PathPrefix("/api").Subrouter()
	if deps.Limiter != nil {
		api.Use(rateLimitMiddleware(deps.Limiter, log, deps.Metrics))
	}

	// Analytics endpoints
	api.HandleFunc("/analytics", deps.Analytics.Analyze).Methods("POST")
	api.HandleFunc("/users/{userID}/analytics", deps.Analytics.GetUserAnalytics).Methods("GET")
	api.HandleFunc("/users/{userID}/patterns", deps.Analytics.GetPatterns).Methods("GET")
	api.HandleFunc("/users/{userID}/snapshots", deps.Analytics.CreateSnapshot).Methods("POST")
	api.HandleFunc("/users/{userID}/emotional/history", deps.Analytics.GetEmotionalHistory).Methods("GET")

	// Risk endpoints
	api.HandleFunc("/risk/position-size", deps.Risk.PositionSize).Methods("POST")

	// Notifications
	if deps.Events != nil {
		r.HandleFunc("/ws/users/{userID}/events", deps.Events.Stream).Methods("GET")
	}

	// Apply middleware
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(log, deps.Metrics))
	r.Use(recoveryMiddleware(log))

	return cors.New(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler(r)
}
