package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/mindengage-quiz/internal/api/http"
	auth "github.com/mind-engage/mindengage-quiz/internal/auth/middleware"
	"github.com/mind-engage/mindengage-quiz/internal/config"
	"github.com/mind-engage/mindengage-quiz/internal/db"
	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/platform/logger"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	syncx "github.com/mind-engage/mindengage-quiz/internal/sync"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode, logger.WithHashSalt(cfg.AuthHMACSecret))
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		log.Fatal("db open failed", "driver", cfg.DBDriver, "error", err)
	}
	defer dbh.Close()
	store := quiz.NewSQLStore(dbh, cfg.DBDriver)

	// --- Attempt events: event_log inline, Redis and webhook off the request path ---
	eventRepo := syncx.NewEventRepo(dbh)
	var remote syncx.Multi
	if cfg.RedisAddr != "" {
		rp, err := syncx.NewRedisPublisher(log, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			log.Warn("redis disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			defer rp.Close()
			remote = append(remote, rp)
		}
	}
	if cfg.WebhookURL != "" {
		wp, err := syncx.NewWebhookPublisher(syncx.WebhookConfig{
			URL:          cfg.WebhookURL,
			TokenURL:     cfg.WebhookTokenURL,
			ClientID:     cfg.WebhookClientID,
			ClientSecret: cfg.WebhookClientSecret,
		})
		if err != nil {
			log.Warn("webhook disabled", "error", err)
		} else {
			remote = append(remote, wp)
		}
	}
	publishers := syncx.Multi{eventRepo}
	if len(remote) > 0 {
		fwd := syncx.NewAsync(log, remote, 1024, 10*time.Second)
		defer fwd.Close()
		publishers = append(publishers, fwd)
	}
	grader := grading.NewService(store, store, log, grading.WithEvents(publishers))

	// --- Auth (local JWT for offline/dev) ---
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, api.RequestLogger(log), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.Mount(r, api.Deps{
		Store:               store,
		Grader:              grader,
		Events:              eventRepo,
		Auth:                authSvc,
		ExposeCorrectOption: cfg.ExposeCorrectOption,
		EnableLocalAuth:     cfg.EnableLocalAuth,
		DevPassHash:         cfg.DevPassHash,
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("listening",
		"addr", cfg.HTTPAddr,
		"mode", cfg.Mode,
		"db", cfg.DBDriver,
		"expose_correct_option", cfg.ExposeCorrectOption,
		"redis", cfg.RedisAddr != "",
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("http server", "error", err)
	}
	log.Info("shutdown complete")
}
