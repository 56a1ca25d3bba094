package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/fretcheck/internal/api"
	"github.com/RMahshie/fretcheck/internal/capture"
	"github.com/RMahshie/fretcheck/internal/config"
	"github.com/RMahshie/fretcheck/internal/estimator"
	"github.com/RMahshie/fretcheck/internal/processing"
	"github.com/RMahshie/fretcheck/internal/repository/postgres"
	"github.com/RMahshie/fretcheck/internal/storage"
	"github.com/RMahshie/fretcheck/internal/tone"
	"github.com/RMahshie/fretcheck/internal/tone/speaker"
	"github.com/RMahshie/fretcheck/internal/tuner"
	"github.com/RMahshie/fretcheck/pkg/models"
)

func main() {
	// Configure zerolog for structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if cfg.Server.Env == "prod" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}

	store, err := storage.NewClipStore(ctx, storage.Config{
		Driver: cfg.Storage.Driver,
		S3: storage.S3Config{
			Bucket:    cfg.Storage.AWS.S3Bucket,
			Endpoint:  cfg.Storage.AWS.S3Endpoint,
			Region:    cfg.Storage.AWS.Region,
			AccessKey: cfg.Storage.AWS.AccessKeyID,
			SecretKey: cfg.Storage.AWS.SecretAccessKey,
		},
		MinIO: storage.MinioConfig{
			Endpoint:  cfg.Storage.MinIO.Endpoint,
			AccessKey: cfg.Storage.MinIO.AccessKey,
			SecretKey: cfg.Storage.MinIO.SecretKey,
			Bucket:    cfg.Storage.MinIO.Bucket,
			UseSSL:    cfg.Storage.MinIO.UseSSL,
		},
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("Failed to initialize recording storage")
	}

	capturer, err := capture.Backend(cfg.Capture.Backend)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to select capture backend")
	}

	pipeline := tuner.New(capturer, tuner.Config{
		Duration: cfg.Capture.Duration,
		Estimator: estimator.Config{
			Guard:          cfg.Estimator.HarmonicGuard,
			MinPeakToFloor: cfg.Estimator.MinPeakToFloor,
			MinPlausibleHz: cfg.Estimator.MinPlausibleHz,
			MaxPlausibleHz: cfg.Estimator.MaxPlausibleHz,
		},
	})

	repo := postgres.NewPostgresTuningRepository(db)
	processingSvc := processing.NewTuningService(pipeline, repo, store, cfg.Processing.QueueSize)
	processingSvc.Start(ctx)

	// Create Chi router
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(zerologLogger())
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Create Huma API
	humaConfig := huma.DefaultConfig("Fretcheck API", "1.0.0")
	humaConfig.DocsPath = "/api/docs"
	humaAPI := humachi.New(router, humaConfig)

	// Register health endpoint
	huma.Register(humaAPI, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the service",
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		resp := &models.HealthResponse{}
		resp.Body.Status = "healthy"
		resp.Body.Version = "1.0.0"
		resp.Body.Time = time.Now()
		return resp, nil
	})

	api.RegisterRoutes(humaAPI, api.Dependencies{
		Repo:          repo,
		Store:         store,
		ProcessingSvc: processingSvc,
		ClipTuner:     pipeline,
		Tones:         tone.NewGenerator(speaker.New(), cfg.Tone.SampleRate, cfg.Tone.Duration),
	})

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("capture_backend", cfg.Capture.Backend).Msg("Starting Fretcheck API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// zerologLogger returns a Chi middleware that logs HTTP requests using zerolog
func zerologLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote_ip", r.RemoteAddr).
					Int("status", ww.Status()).
					Dur("latency", time.Since(start)).
					Str("user_agent", r.UserAgent()).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
