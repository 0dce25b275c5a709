package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/krsna-app/krsna/api/config"
	"github.com/krsna-app/krsna/api/server/handlers"
	"github.com/krsna-app/krsna/api/store"
	"github.com/krsna-app/krsna/pkg/otel"
)

const ReadTimeout = 30 * time.Second

type Server struct {
	cfg       *config.Config
	router    *chi.Mux
	server    *http.Server
	hub       *Hub
	store     *store.Store
	scheduler *Scheduler
}

func NewServer(cfg *config.Config, s *store.Store) *Server {
	hub := NewHub()

	pollInterval, err := time.ParseDuration(cfg.Nudge.PollInterval)
	if err != nil {
		pollInterval = 15 * time.Second
	}
	scheduler := NewScheduler(hub, s, pollInterval)

	router := chi.NewRouter()

	router.Use(otel.Middleware("krsna-api"))
	router.Use(Recovery)
	router.Use(Logger)
	router.Use(Metrics)
	router.Use(CORS(cfg.Server.AllowedOrigins))

	healthH := handlers.NewHealthHandler(func(ctx context.Context) error { return s.Pool().Ping(ctx) })
	router.Get("/health", healthH.Readiness)
	router.Get("/health/live", healthH.Liveness)
	router.Handle("/metrics", promhttp.Handler())

	wsHandler := NewWSHandler(hub, cfg, s)
	router.Get("/api/v1/ws", wsHandler.ServeHTTP)

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthWithConfig(AuthConfig{RequireAuth: cfg.Server.RequireAuth}))

		r.Route("/data", func(r chi.Router) {
			todoH := handlers.NewTodoHandler(s)
			r.Post("/todos", todoH.Create)
			r.Get("/todos", todoH.List)
			r.Get("/todos/{id}", todoH.Get)
			r.Patch("/todos/{id}", todoH.Update)
			r.Post("/todos/{id}/toggle", todoH.Toggle)
			r.Delete("/todos/{id}", todoH.Delete)

			journalH := handlers.NewJournalHandler(s)
			r.Post("/journal", journalH.Create)
			r.Get("/journal", journalH.List)
			r.Patch("/journal/{id}", journalH.Update)
			r.Delete("/journal/{id}", journalH.Delete)

			trackerH := handlers.NewTrackerHandler(s)
			r.Post("/trackers", trackerH.Create)
			r.Get("/trackers", trackerH.List)
			r.Post("/trackers/{id}/logs", trackerH.Log)
			r.Delete("/trackers/{id}", trackerH.Delete)

			projectH := handlers.NewProjectHandler(s)
			r.Post("/projects", projectH.Create)
			r.Get("/projects", projectH.List)
			r.Patch("/projects/{id}", projectH.Update)
			r.Delete("/projects/{id}", projectH.Delete)

			goalH := handlers.NewGoalHandler(s)
			r.Post("/goals", goalH.Create)
			r.Get("/goals", goalH.List)
			r.Patch("/goals/{id}", goalH.Update)
			r.Delete("/goals/{id}", goalH.Delete)
		})

		agentH := handlers.NewAgentHandler(s, scheduler)
		r.Get("/agent/config", agentH.GetConfig)
		r.Put("/agent/config", agentH.UpdateConfig)
		r.Get("/agent/memory", agentH.ListMemories)
		r.Post("/agent/memory", agentH.CreateMemory)
		r.Delete("/agent/memory/{id}", agentH.DeleteMemory)
		r.Get("/agent/messages", agentH.ListMessages)
		r.Delete("/agent/messages", agentH.ClearMessages)
		r.Post("/agent/nudge", agentH.CheckNudge)
	})

	return &Server{
		cfg:       cfg,
		router:    router,
		hub:       hub,
		store:     s,
		scheduler: scheduler,
	}
}

func (s *Server) Hub() *Hub {
	return s.hub
}

// Scheduler returns the nudge sweep scheduler so the caller can run it.
func (s *Server) Scheduler() *Scheduler {
	return s.scheduler
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  ReadTimeout,
		WriteTimeout: 0,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
