package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carepulse/carepulse/internal/config"
	"github.com/carepulse/carepulse/internal/domain/clinical"
	"github.com/carepulse/carepulse/internal/domain/insight"
	"github.com/carepulse/carepulse/internal/domain/vitals"
	"github.com/carepulse/carepulse/internal/platform/db"
	"github.com/carepulse/carepulse/internal/platform/docstore"
	"github.com/carepulse/carepulse/internal/platform/genai"
	"github.com/carepulse/carepulse/internal/platform/middleware"
)

// VitalsSourceAdapter adapts the vitals reading repository to the
// insight.VitalsSource interface, avoiding circular imports between the
// vitals and insight packages.
type VitalsSourceAdapter struct {
	readings vitals.ReadingRepository
}

func NewVitalsSourceAdapter(readings vitals.ReadingRepository) *VitalsSourceAdapter {
	return &VitalsSourceAdapter{readings: readings}
}

// RecentVitals implements insight.VitalsSource.
func (a *VitalsSourceAdapter) RecentVitals(ctx context.Context, patientID uuid.UUID, limit int) ([]insight.VitalsPoint, error) {
	readings, err := a.readings.ListRecentByPatient(ctx, patientID, int64(limit))
	if err != nil {
		return nil, err
	}
	points := make([]insight.VitalsPoint, 0, len(readings))
	for _, r := range readings {
		points = append(points, insight.VitalsPoint{
			Timestamp:     r.Timestamp,
			HeartRate:     r.HeartRate,
			SystolicBP:    r.SystolicBP,
			DiastolicBP:   r.DiastolicBP,
			OxygenLevel:   r.OxygenLevel,
			SleepHours:    r.SleepHours,
			StressLevel:   r.StressLevel,
			CalorieIntake: r.CalorieIntake,
			SymptomNotes:  r.SymptomNotes,
		})
	}
	return points, nil
}

// ClinicalSourceAdapter adapts the clinical repository to the
// insight.ClinicalSource interface.
type ClinicalSourceAdapter struct {
	repo clinical.Repository
}

func NewClinicalSourceAdapter(repo clinical.Repository) *ClinicalSourceAdapter {
	return &ClinicalSourceAdapter{repo: repo}
}

// RecentHistory implements insight.ClinicalSource.
func (a *ClinicalSourceAdapter) RecentHistory(ctx context.Context, patientID uuid.UUID, limit int) ([]insight.HistoryEntry, error) {
	records, err := a.repo.History(ctx, patientID, limit)
	if err != nil {
		return nil, err
	}
	entries := make([]insight.HistoryEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, insight.HistoryEntry{
			VisitDate:  r.VisitDate,
			DoctorName: r.DoctorName,
			Diagnosis:  r.Diagnosis,
			Notes:      r.Notes,
		})
	}
	return entries, nil
}

// CurrentMedications implements insight.ClinicalSource.
func (a *ClinicalSourceAdapter) CurrentMedications(ctx context.Context, patientID uuid.UUID) ([]insight.ActiveMedication, error) {
	meds, err := a.repo.ActiveMedications(ctx, patientID, 50)
	if err != nil {
		return nil, err
	}
	result := make([]insight.ActiveMedication, 0, len(meds))
	for _, m := range meds {
		result = append(result, insight.ActiveMedication{
			DrugName:  m.DrugName,
			Dosage:    m.Dosage,
			Frequency: m.Frequency,
			Duration:  m.Duration,
		})
	}
	return result, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "carepulse-server",
		Short: "CarePulse health-risk insight API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Relational store
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Document store
	mongoClient, mongoDB, err := docstore.Connect(ctx, cfg.MongoURL, cfg.MongoDatabase)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to document store")
	}
	defer mongoClient.Disconnect(context.Background())
	logger.Info().Msg("connected to document store")

	// Reasoning engine client
	engine, err := genai.NewHTTPClient(genai.Config{
		BaseURL: cfg.GenAIBaseURL,
		APIKey:  cfg.GenAIAPIKey,
		Model:   cfg.GenAIModel,
		Timeout: cfg.GenAITimeout(),
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build reasoning engine client")
	}

	// Repositories
	readingRepo := vitals.NewReadingRepoMongo(mongoDB)
	batchRepo := vitals.NewBatchRepoPG(pool)
	clinicalRepo := clinical.NewRepoPG(pool)
	insightRepo := insight.NewRepoMongo(mongoDB)

	// Services
	inTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}
	ingestor := vitals.NewIngestor(readingRepo, batchRepo, logger)
	clinicalSvc := clinical.NewService(clinicalRepo, inTx, logger)
	contextBuilder := insight.NewContextBuilder(
		NewVitalsSourceAdapter(readingRepo),
		NewClinicalSourceAdapter(clinicalRepo),
	)
	insightSvc := insight.NewService(contextBuilder, insightRepo, engine, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(time.Duration(cfg.RequestTimeout) * time.Second))
	e.Use(middleware.BodyLimit(cfg.UploadBodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-File-Name"},
	}))

	// API group
	apiV1 := e.Group("/api/v1")

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	// Handlers
	vitals.NewHandler(ingestor, insightSvc, logger).RegisterRoutes(apiV1)
	clinical.NewHandler(clinicalSvc).RegisterRoutes(apiV1)
	insight.NewHandler(insightSvc).RegisterRoutes(apiV1)

	// Health checks
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/health/docstore", docstore.HealthHandler(mongoClient))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
