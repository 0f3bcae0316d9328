package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"nutrition-bot/pkg/logger"
)

type Server struct {
	server *http.Server
	logger *logger.Logger
}

// NewRouter mounts the JSON API, the Stripe webhook and the health check.
// The webhook is optional; without it the route is not registered.
func NewRouter(api *API, webhook *StripeWebhook, origins []string, l *logger.Logger) http.Handler {
	r := mux.NewRouter()

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/plan", api.ComputePlan).Methods(http.MethodPost)
	v1.HandleFunc("/users/{userID}/plan/confirm", api.ConfirmPlan).Methods(http.MethodPost)
	v1.HandleFunc("/users/{userID}/meals", api.LogMeal).Methods(http.MethodPost)
	v1.HandleFunc("/users/{userID}/insights", api.Insights).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/suggestions", api.Suggestions).Methods(http.MethodGet)
	v1.HandleFunc("/users/{userID}/report", api.Report).Methods(http.MethodGet)
	v1.HandleFunc("/meals/{mealID}/grade", api.GradeMeal).Methods(http.MethodPost)

	if webhook != nil {
		r.Handle("/webhook/stripe", webhook).Methods(http.MethodPost)
	}

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(loggingMiddleware(l, r))
}

func NewServer(port string, handler http.Handler, logger *logger.Logger) *Server {
	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		server: httpServer,
		logger: logger,
	}
}

func (s *Server) Start() error {
	s.logger.Infow("Starting HTTP server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}

type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(l *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		l.Infow("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration", time.Since(start))
	})
}
