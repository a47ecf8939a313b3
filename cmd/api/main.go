package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/rahulnair/sparkle-catalog/internal/application"
	appreview "github.com/rahulnair/sparkle-catalog/internal/application/review"
	appruns "github.com/rahulnair/sparkle-catalog/internal/application/runs"
	"github.com/rahulnair/sparkle-catalog/internal/config"
	aidom "github.com/rahulnair/sparkle-catalog/internal/domain/ai"
	faultdom "github.com/rahulnair/sparkle-catalog/internal/domain/faults"
	reviewdom "github.com/rahulnair/sparkle-catalog/internal/domain/review"
	domain "github.com/rahulnair/sparkle-catalog/internal/domain/runs"
	openaiclient "github.com/rahulnair/sparkle-catalog/internal/infra/ai/openai"
	"github.com/rahulnair/sparkle-catalog/internal/infra/ai/prompt"
	mysqlp "github.com/rahulnair/sparkle-catalog/internal/infra/db/mysql"
	postgresp "github.com/rahulnair/sparkle-catalog/internal/infra/db/postgres"
	"github.com/rahulnair/sparkle-catalog/internal/infra/executor/pipeline"
	"github.com/rahulnair/sparkle-catalog/internal/infra/httpserver"
	minioStore "github.com/rahulnair/sparkle-catalog/internal/infra/storage"
	"github.com/rahulnair/sparkle-catalog/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database, pilih driver dari config
	var (
		db         *sql.DB
		runRepo    domain.Repository
		faultRepo  faultdom.Repository
		reviewRepo reviewdom.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		runRepo = postgresp.NewRunRepository(db)
		faultRepo = postgresp.NewFaultRepository(db)
		reviewRepo = postgresp.NewReviewRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		runRepo = mysqlp.NewRunRepository(db)
		faultRepo = mysqlp.NewFaultRepository(db)
		reviewRepo = mysqlp.NewReviewRepository(db)
	}
	defer db.Close()

	// init minio (optional)
	var artifacts domain.ArtifactStore
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		artifacts = store
	}

	// init runner; credential value is injected into the worker env only
	apiKey := cfg.Pipeline.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(cfg.Pipeline.APIKeyEnv)
	}
	runner := pipeline.NewRunner(
		cfg.Pipeline.Command,
		cfg.Pipeline.PayloadDir,
		cfg.PipelineTimeout(),
		cfg.Pipeline.APIKeyEnv,
		apiKey,
	)

	// init services
	runsSvc := &appruns.Service{
		Repo:      runRepo,
		Runner:    runner,
		Faults:    faultRepo,
		Artifacts: artifacts,
		Clock:     application.SystemClock{},
	}

	// AI reviewer: OpenAI when a key is set, offline heuristic otherwise
	var aiClient aidom.Client
	if cfg.OpenAI.APIKey != "" {
		aiClient = openaiclient.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	} else {
		aiClient = prompt.Local{}
	}
	reviewSvc := &appreview.Service{
		Repo:   reviewRepo,
		Runs:   runRepo,
		Client: aiClient,
		Model:  cfg.OpenAI.Model,
		Clock:  application.SystemClock{},
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate))
	if len(cfg.Auth.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}

	mux.Get("/health", middleware.HealthHandler(map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
		"outputs":  &middleware.OutputDirChecker{Dir: cfg.Pipeline.OutputDir},
		"worker":   &middleware.WorkerChecker{Command: cfg.Pipeline.Command[0]},
	}))
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", httpserver.NewRouter(runsSvc, reviewSvc, cfg.Pipeline.OutputDir))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // pipeline runs are synchronous
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
