package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/life-master/apiserver/config"
	"github.com/life-master/apiserver/internal/db"
	"github.com/life-master/apiserver/internal/events"
	"github.com/life-master/apiserver/internal/handlers"
	"github.com/life-master/apiserver/internal/services"
	"github.com/life-master/apiserver/internal/storage"
	"github.com/life-master/apiserver/internal/store"
	"github.com/life-master/apiserver/types"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	bus        *events.Bus
}

// New wires configuration, storage and the service graph into a ready
// HTTP server.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWT.Secret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	blobs, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := blobs.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	bus, err := events.New(ctx, cfg.Events)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userService := services.NewUserService(store.NewUserRepository(dbConn))
	entityStore := store.NewEntityStore(dbConn)

	resources := &handlers.Resources{
		Categories: services.NewResourceService(store.NewResourceRepository(dbConn, store.CategoryDescriptor()), types.KindCategory, bus),
		Tasks:      services.NewResourceService(store.NewResourceRepository(dbConn, store.TaskDescriptor()), types.KindTask, bus),
		Notes:      services.NewResourceService(store.NewResourceRepository(dbConn, store.NoteDescriptor()), types.KindNote, bus),
		Habits:     services.NewResourceService(store.NewResourceRepository(dbConn, store.HabitDescriptor()), types.KindHabit, bus),
		Relations:  services.NewRelationService(entityStore, store.NewRelationStore(dbConn)),
	}

	fileService := services.NewFileService(
		store.NewFileRepository(dbConn),
		entityStore,
		blobs,
		cfg.Files.MaxBytes,
		bus,
	)

	authHandler := handlers.NewAuthHandler(userService, jwtSecret, cfg.JWT.TTL)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authHandler)
		})
		r.Group(func(r chi.Router) {
			r.Use(authHandler.RequireAuth)
			handlers.ResourceRoutes(r, resources)
			r.Route("/users", func(r chi.Router) {
				handlers.UserRouter(r, handlers.NewUserHandler(userService))
			})
			r.Get("/dashboard-stats", handlers.NewDashboardHandler(entityStore).Stats)
			r.Route("/files", func(r chi.Router) {
				handlers.FileRouter(r, handlers.NewFileHandler(fileService))
			})
		})
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		bus:        bus,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	_ = s.bus.Close()
	return s.httpServer.Close()
}
