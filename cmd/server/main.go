package main

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"medical-portal/internal/auth"
	"medical-portal/internal/chat"
	"medical-portal/internal/config"
	"medical-portal/internal/patient"
	"medical-portal/internal/report"
	"medical-portal/internal/web"
)

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// 1. Infrastructure
	var db *sql.DB
	for i := 0; i < 10; i++ {
		db, err = sql.Open("postgres", cfg.Database.URL)
		if err == nil {
			err = db.Ping()
		}
		if err == nil {
			break
		}
		logger.Info("waiting for database", zap.Int("attempt", i+1))
		time.Sleep(time.Second)
	}
	if err != nil {
		logger.Fatal("could not connect to database", zap.Error(err))
	}

	m, err := migrate.New("file://migrations", cfg.Database.URL)
	if err != nil {
		logger.Fatal("migration init failed", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		logger.Fatal("migration up failed", zap.Error(err))
	}
	logger.Info("migrations applied")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 2. Services
	sessionTTL := time.Duration(cfg.Session.TTLHours) * time.Hour
	sessions := auth.NewSessionStore(rdb, sessionTTL, logger)
	sessions.Subscribe(func(ev auth.SessionEvent) {
		logger.Debug("session changed",
			zap.String("kind", string(ev.Kind)),
			zap.String("user_id", ev.Identity.ID.String()))
	})

	authSvc := auth.NewService(auth.NewRepository(db), sessions, logger)
	patientSvc := patient.NewService(patient.NewRepository(db), logger)

	var assistant chat.Assistant
	if cfg.OpenAI.APIKey != "" {
		assistant = chat.NewOpenAIAssistant(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
		logger.Info("assistant collaborator enabled", zap.String("model", cfg.OpenAI.Model))
	}
	chatSvc := chat.NewService(assistant, logger)

	reportSvc := report.NewService(logger)

	// 3. Handlers
	cookieAge := int(sessionTTL.Seconds())
	authHandler := auth.NewHandler(authSvc, cookieAge, logger)
	patientHandler := patient.NewHandler(patientSvc, logger)
	chatHandler := chat.NewHandler(chatSvc, logger)
	reportHandler := report.NewHandler(reportSvc, patientSvc, logger)

	webHandler, err := web.NewHandler("internal/web/templates", authSvc, patientSvc, chatSvc, cookieAge, logger)
	if err != nil {
		logger.Fatal("failed to load templates", zap.Error(err))
	}

	// 4. Router
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		auth.RegisterRoutes(api, authHandler)
		api.Group(func(protected chi.Router) {
			protected.Use(auth.RequireAuth(sessions, false, logger))
			patient.RegisterRoutes(protected, patientHandler)
			chat.RegisterRoutes(protected, chatHandler)
			report.RegisterRoutes(protected, reportHandler)
		})
	})
	web.RegisterRoutes(r, webHandler, auth.RequireAuth(sessions, true, logger))

	logger.Info("server starting", zap.String("addr", cfg.HTTP.Addr))
	if err := http.ListenAndServe(cfg.HTTP.Addr, r); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Log.Format == "console" {
		return zap.NewDevelopment()
	}
	zcfg := zap.NewProductionConfig()
	if lvl, err := zap.ParseAtomicLevel(cfg.Log.Level); err == nil {
		zcfg.Level = lvl
	}
	return zcfg.Build()
}
