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

	"github.com/aUsernamePNG/WebSpectrometer/internal/api"
	"github.com/aUsernamePNG/WebSpectrometer/internal/config"
	"github.com/aUsernamePNG/WebSpectrometer/internal/pipeline"
	"github.com/aUsernamePNG/WebSpectrometer/internal/recording"
	"github.com/aUsernamePNG/WebSpectrometer/internal/repository/postgres"
	"github.com/aUsernamePNG/WebSpectrometer/internal/spectrum"
	"github.com/aUsernamePNG/WebSpectrometer/internal/storage"
	"github.com/aUsernamePNG/WebSpectrometer/pkg/models"
)

func main() {
	// Configure zerolog for structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Database
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("Failed to reach database")
	}
	sessionRepo := postgres.NewPostgresSessionRepository(db)

	// Artifact store
	store, err := storage.NewS3Store(storage.S3Config{
		Bucket:    cfg.AWS.S3Bucket,
		Endpoint:  cfg.AWS.S3Endpoint,
		Region:    cfg.AWS.Region,
		AccessKey: cfg.AWS.AccessKeyID,
		SecretKey: cfg.AWS.SecretAccessKey,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create artifact store")
	}

	// Spectral pipeline
	cal, err := spectrum.NewCalibrator(
		models.CalibrationPoint{Pixel: cfg.Calibration.Point1Pixel, WavelengthNm: cfg.Calibration.Point1Wavelength},
		models.CalibrationPoint{Pixel: cfg.Calibration.Point2Pixel, WavelengthNm: cfg.Calibration.Point2Wavelength})
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid calibration configuration")
	}

	roi := models.ROI{
		StartX: cfg.Camera.ROIStartX,
		StopX:  cfg.Camera.ROIStopX,
		StartY: cfg.Camera.ROIStartY,
		StopY:  cfg.Camera.ROIStopY,
	}

	source := pipeline.NewSyntheticSource(cfg.Camera.FrameWidth, cfg.Camera.FrameHeight)
	pipe := pipeline.New(source, cal, roi, loadQEProfile(cfg))
	pipe.SetReversed(cfg.Display.Reversed)
	pipe.SetShowCalibrationLines(cfg.Display.ShowCalibrationLines)
	if cfg.Display.EndNm > cfg.Display.StartNm {
		if _, err := pipe.UpdateDisplayRange(cfg.Display.StartNm, cfg.Display.EndNm); err != nil {
			log.Warn().Err(err).Msg("Configured display range rejected, using full sensor range")
		}
	}

	// No raw-capture collaborator ships with the synthetic source.
	recorder := recording.NewRecorder(pipe, nil, store, sessionRepo)
	if cfg.Recording.CaptureRawVideo {
		log.Warn().Msg("RECORD_RAW_VIDEO is enabled but no raw-capture collaborator is available; raw capture requests will be rejected")
	}

	fps := cfg.Camera.CaptureFPS
	if fps <= 0 {
		fps = 30
	}

	// Drive the capture loop until shutdown
	captureCtx, stopCapture := context.WithCancel(context.Background())
	defer stopCapture()
	go pipe.Run(captureCtx, time.Second/time.Duration(fps))

	// Create Chi router
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(zerologLogger())
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create Huma API
	humaConfig := huma.DefaultConfig("WebSpectrometer API", "1.0.0")
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

	api.RegisterRoutes(humaAPI, pipe, recorder, sessionRepo, store, cfg.Recording)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting WebSpectrometer API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	stopCapture()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// loadQEProfile builds the configured quantum-efficiency profile,
// falling back to the identity profile on bad input.
func loadQEProfile(cfg *config.Config) spectrum.Profile {
	switch spectrum.ProfileKind(cfg.QE.Profile) {
	case spectrum.ProfileGenerated:
		return spectrum.GeneratedProfile()
	case spectrum.ProfileCustom:
		f, err := os.Open(cfg.QE.CSVPath)
		if err != nil {
			log.Error().Err(err).Str("path", cfg.QE.CSVPath).Msg("Cannot open QE profile CSV, using identity profile")
			return spectrum.NoneProfile()
		}
		defer f.Close()

		profile, err := spectrum.LoadProfileCSV(f)
		if err != nil {
			log.Error().Err(err).Str("path", cfg.QE.CSVPath).Msg("Cannot parse QE profile CSV, using identity profile")
			return spectrum.NoneProfile()
		}
		return profile
	default:
		return spectrum.NoneProfile()
	}
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
