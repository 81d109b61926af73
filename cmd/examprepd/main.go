package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	api "github.com/mind-engage/examprep/internal/api/http"
	auth "github.com/mind-engage/examprep/internal/auth/middleware"
	"github.com/mind-engage/examprep/internal/config"
	"github.com/mind-engage/examprep/internal/db"
	"github.com/mind-engage/examprep/internal/event"
	"github.com/mind-engage/examprep/internal/exam"
	"github.com/mind-engage/examprep/internal/grading"
	"github.com/mind-engage/examprep/internal/storage"
	syncx "github.com/mind-engage/examprep/internal/sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	defer dbh.Close()
	store := exam.NewSQLStore(dbh, cfg.DBDriver)
	events := syncx.NewEventRepo(dbh)

	if cfg.QuestionBank != "" {
		qs, err := exam.LoadBank(cfg.QuestionBank)
		if err != nil {
			log.Fatalf("question bank: %v", err)
		}
		if err := store.PutQuestions(ctx, qs...); err != nil {
			log.Fatalf("question bank import: %v", err)
		}
		log.Printf("imported %d questions from %s", len(qs), cfg.QuestionBank)
	}

	// --- Scoring, auth, events, assets ---
	scorer := grading.NewScorer(
		grading.WithPassPercent(cfg.PassPercent),
		grading.WithDifficultyWeights(cfg.WeightEasy, cfg.WeightMedium, cfg.WeightHard),
	)
	authSvc := auth.NewAuthService(cfg.AuthHMACSecret, cfg.AdminUser, cfg.AdminPassHash)
	if cfg.AdminPassHash == "" {
		log.Println("ADMIN_PASS_HASH is empty, admin login is disabled")
	}

	pub, err := event.NewEventPublisher(cfg.RabbitMQURI, cfg.RabbitMQExchange)
	if err != nil {
		log.Fatalf("event publisher: %v", err)
	}
	defer pub.Close()

	bs, err := storage.NewFSStore(cfg.BlobBasePath, cfg.PublicURL)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	a := &api.API{
		Store:           store,
		Scorer:          scorer,
		Auth:            authSvc,
		Events:          events,
		Publisher:       pub,
		Blobs:           bs,
		ServeAnswerKeys: cfg.ServeAnswerKeys,
		EnableGuest:     cfg.EnableGuest,
		SecureCookies:   strings.HasPrefix(cfg.PublicURL, "https:"),
	}
	a.Routes(r)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Printf("listening on %s (db=%s, guest=%t)", cfg.HTTPAddr, cfg.DBDriver, cfg.EnableGuest)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("shutting down")

	shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
