package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/lhr-rocks/catbridge/internal/cat"
	"github.com/lhr-rocks/catbridge/internal/config"
	"github.com/lhr-rocks/catbridge/internal/db"
	"github.com/lhr-rocks/catbridge/internal/grade"
	"github.com/lhr-rocks/catbridge/internal/gradelog"
	"github.com/lhr-rocks/catbridge/internal/lti"
	"github.com/lhr-rocks/catbridge/internal/question"
	"github.com/lhr-rocks/catbridge/internal/quiz"
	"github.com/lhr-rocks/catbridge/internal/web"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// Static quiz configuration and question content: read once, immutable
	// for the process lifetime.
	quizConfig, err := os.ReadFile(cfg.QuizConfigPath)
	if err != nil {
		log.Fatalf("quiz config: %v", err)
	}
	questions, err := question.NewDirStore(cfg.QuestionDir)
	if err != nil {
		log.Fatalf("question store: %v", err)
	}

	// --- Grade journal DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	var journal gradelog.Store = gradelog.Nop{}
	if cfg.DBDriver != "" && cfg.DBDriver != "none" {
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		journal = gradelog.NewSQLStore(dbh)
	}

	// --- Collaborator clients ---
	engine := cat.NewClient(cfg.CATBaseURL, cfg.OutboundTimeout)
	ags := lti.NewAGSClient(lti.AGSConfig{
		TokenURL:     cfg.PlatformTokenURL,
		ClientID:     cfg.PlatformClientID,
		ClientSecret: cfg.PlatformClientSecret,
		Timeout:      cfg.OutboundTimeout,
	})
	submitter := grade.NewSubmitter(ags, journal)

	tokens := lti.NewTokenService(cfg.LtikHMACSecret, cfg.LtikTTL)

	orch := &quiz.Orchestrator{
		CAT:        engine,
		Questions:  questions,
		Grades:     submitter,
		Views:      web.NewViews(),
		Topic:      cfg.QuizTopic,
		QuizConfig: quizConfig,
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// Launch boundary: mints the ltik and bounces into the quiz.
	r.Post("/lti/launch", lti.LaunchHandler(tokens, "/start-quiz"))

	// Orchestrator routes, identity required.
	r.Group(func(pr chi.Router) {
		pr.Use(lti.LtikMiddleware(tokens))
		orch.Mount(pr)
	})

	log.Printf("catbridge listening on %s (cat engine %s, topic %s)", cfg.HTTPAddr, cfg.CATBaseURL, cfg.QuizTopic)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}
