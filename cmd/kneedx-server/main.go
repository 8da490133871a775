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
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/kneedx/kneedx/internal/config"
	"github.com/kneedx/kneedx/internal/domain/admin"
	"github.com/kneedx/kneedx/internal/domain/appointment"
	"github.com/kneedx/kneedx/internal/domain/doctor"
	"github.com/kneedx/kneedx/internal/domain/identity"
	"github.com/kneedx/kneedx/internal/domain/ledger"
	"github.com/kneedx/kneedx/internal/domain/patient"
	"github.com/kneedx/kneedx/internal/domain/rawdata"
	"github.com/kneedx/kneedx/internal/domain/testrecord"
	"github.com/kneedx/kneedx/internal/platform/auth"
	"github.com/kneedx/kneedx/internal/platform/db"
	"github.com/kneedx/kneedx/internal/platform/httperr"
	"github.com/kneedx/kneedx/internal/platform/middleware"
	"github.com/kneedx/kneedx/internal/platform/report"
)

// DoctorDirectoryAdapter adapts the doctor repository to the summary view
// the admin dashboards need, avoiding circular imports between the admin
// and doctor packages.
type DoctorDirectoryAdapter struct {
	repo doctor.Repository
}

func (a *DoctorDirectoryAdapter) ListByHospitalAdmin(ctx context.Context, hospitalAdminID uuid.UUID) ([]admin.DoctorSummary, error) {
	doctors, err := a.repo.ListByHospitalAdmin(ctx, hospitalAdminID)
	if err != nil {
		return nil, err
	}
	summaries := make([]admin.DoctorSummary, 0, len(doctors))
	for _, d := range doctors {
		summaries = append(summaries, admin.DoctorSummary{
			ID:      d.ID,
			Name:    d.Name,
			Email:   d.Email,
			Gender:  d.Gender,
			Metrics: d.Metrics,
		})
	}
	return summaries, nil
}

// HospitalLedgerAdapter exposes hospital admin quota counters to the
// doctor domain.
type HospitalLedgerAdapter struct {
	repo admin.HospitalAdminRepository
}

func (a *HospitalLedgerAdapter) Metrics(ctx context.Context, hospitalAdminID uuid.UUID) (ledger.TestMetrics, error) {
	ha, err := a.repo.GetByID(ctx, hospitalAdminID)
	if err == admin.ErrNotFound {
		return ledger.TestMetrics{}, doctor.ErrHospitalNotFound
	}
	if err != nil {
		return ledger.TestMetrics{}, err
	}
	return ha.Metrics, nil
}

func (a *HospitalLedgerAdapter) SaveMetrics(ctx context.Context, hospitalAdminID uuid.UUID, m ledger.TestMetrics) error {
	err := a.repo.UpdateMetrics(ctx, hospitalAdminID, m)
	if err == admin.ErrNotFound {
		return doctor.ErrHospitalNotFound
	}
	return err
}

// PatientDirectoryAdapter builds the doctor dashboard's patient rows from
// the patient and test repositories.
type PatientDirectoryAdapter struct {
	patients patient.Repository
	tests    testrecord.Repository
}

func (a *PatientDirectoryAdapter) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]doctor.PatientOverview, error) {
	patients, err := a.patients.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	overviews := make([]doctor.PatientOverview, 0, len(patients))
	for _, p := range patients {
		tests, err := a.tests.ListByPatient(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		row := doctor.PatientOverview{
			ID:            p.ID,
			Name:          p.Name,
			Age:           p.Age,
			Sex:           p.Sex,
			PatientCode:   p.PatientCode,
			KneeCondition: p.KneeCondition,
			Tests:         make([]doctor.PatientTest, 0, len(tests)),
		}
		for _, t := range tests {
			row.Tests = append(row.Tests, doctor.PatientTest{
				ID:                     t.ID,
				TestDate:               t.TestDate,
				LegTested:              t.LegTested,
				MaxRangeOfMotion:       t.MaxRangeOfMotion,
				MaxLinearDisplacement:  t.MaxLinearDisplacement,
				MaxAngularDisplacement: t.MaxAngularDisplacement,
			})
		}
		overviews = append(overviews, row)
	}
	return overviews, nil
}

// PatientCheckerAdapter answers existence checks for the test recorder.
type PatientCheckerAdapter struct {
	repo patient.Repository
}

func (a *PatientCheckerAdapter) Exists(ctx context.Context, patientID uuid.UUID) (bool, error) {
	_, err := a.repo.GetByID(ctx, patientID)
	if err == patient.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DoctorNameAdapter resolves doctor display names for patient views.
type DoctorNameAdapter struct {
	repo doctor.Repository
}

func (a *DoctorNameAdapter) Name(ctx context.Context, doctorID uuid.UUID) (string, error) {
	d, err := a.repo.GetByID(ctx, doctorID)
	if err == doctor.ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return d.Name, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "kneedx-server",
		Short: "Knee diagnostics clinic API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tenantCmd())
	rootCmd.AddCommand(seedCmd())

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
			schema, _ := cmd.Flags().GetString("schema")
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
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			schema, _ := cmd.Flags().GetString("schema")
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
			statuses, err := migrator.Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
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
	statusCmd.Flags().String("schema", "tenant_default", "Target schema for migrations")
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func tenantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Manage clinic network tenants",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new tenant schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			dir, _ := cmd.Flags().GetString("dir")
			if name == "" {
				return fmt.Errorf("--name is required")
			}

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

			fmt.Printf("Creating tenant schema: tenant_%s\n", name)
			if err := db.CreateTenantSchema(ctx, pool, name, dir); err != nil {
				return err
			}
			fmt.Println("Tenant created successfully.")
			return nil
		},
	}
	createCmd.Flags().String("name", "", "Tenant identifier (alphanumeric)")
	createCmd.Flags().String("dir", "./migrations", "Path to migrations directory")

	cmd.AddCommand(createCmd)
	return cmd
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed initial records",
	}

	superCmd := &cobra.Command{
		Use:   "super-admin",
		Short: "Create the platform super admin",
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			email, _ := cmd.Flags().GetString("email")
			password, _ := cmd.Flags().GetString("password")
			tenant, _ := cmd.Flags().GetString("tenant")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			// Pin a connection to the tenant schema so the repositories
			// write into the right namespace.
			conn, err := pool.Acquire(ctx)
			if err != nil {
				return err
			}
			defer conn.Release()
			if _, err := conn.Exec(ctx, fmt.Sprintf("SET search_path TO tenant_%s, public", tenant)); err != nil {
				return fmt.Errorf("set search path: %w", err)
			}
			ctx = context.WithValue(ctx, db.ConnKey, conn)

			runTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
				return db.WithTx(ctx, pool, fn)
			}
			people := identity.NewPgRepository(pool)
			supers := admin.NewPgSuperAdminRepository(pool)
			admins := admin.NewPgHospitalAdminRepository(pool)
			doctors := doctor.NewPgRepository(pool)
			service := admin.NewService(people, supers, admins,
				&DoctorDirectoryAdapter{repo: doctors}, runTx, logger)

			sa, err := service.CreateSuperAdmin(ctx, admin.CreateSuperAdminInput{
				Name: name, Email: email, Password: password,
			})
			if err != nil {
				return err
			}
			fmt.Printf("Super admin created: %s (%d tests seeded)\n", sa.ID, sa.Metrics.TotalTests)
			return nil
		},
	}
	superCmd.Flags().String("name", "", "Display name")
	superCmd.Flags().String("email", "", "Login email")
	superCmd.Flags().String("password", "", "Login password")
	superCmd.Flags().String("tenant", "default", "Tenant identifier")
	_ = superCmd.MarkFlagRequired("name")
	_ = superCmd.MarkFlagRequired("email")
	_ = superCmd.MarkFlagRequired("password")

	cmd.AddCommand(superCmd)
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
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Redis, for the short-lived raw capture buffer
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httperr.ErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-Clinic-Network"},
	}))
	e.Use(db.TenantMiddleware(pool, cfg.DefaultTenant))

	// Shared plumbing
	secret := cfg.TokenSecret()
	runTx := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}

	// Repositories
	people := identity.NewPgRepository(pool)
	supers := admin.NewPgSuperAdminRepository(pool)
	admins := admin.NewPgHospitalAdminRepository(pool)
	doctors := doctor.NewPgRepository(pool)
	patients := patient.NewPgRepository(pool)
	appointments := appointment.NewPgRepository(pool)
	tests := testrecord.NewPgRepository(pool)

	// External report pipeline
	reporter := report.NewClient(cfg.ReportAPIURL, cfg.ReportAPITimeout, logger)

	// Services
	doctorDirectory := &DoctorDirectoryAdapter{repo: doctors}
	adminService := admin.NewService(people, supers, admins, doctorDirectory, runTx, logger)
	doctorService := doctor.NewService(people, doctors,
		&HospitalLedgerAdapter{repo: admins},
		&PatientDirectoryAdapter{patients: patients, tests: tests},
		runTx, logger)
	patientService := patient.NewService(people, patients,
		&DoctorNameAdapter{repo: doctors}, tests, runTx, logger)
	appointmentService := appointment.NewService(appointments, patientService, runTx, logger)
	testService := testrecord.NewService(tests,
		&PatientCheckerAdapter{repo: patients},
		appointments, doctorService, reporter, runTx, logger)
	rawStore := rawdata.NewStore(rawdata.NewRedisKV(redisClient), logger)

	// Route groups
	public := e.Group("/api")
	superG := e.Group("/api/super-admin",
		auth.Middleware(secret), auth.RequireRole(auth.RoleSuperAdmin))
	hospitalG := e.Group("/api/hospital-admin",
		auth.Middleware(secret), auth.RequireRole(auth.RoleHospitalAdmin))
	doctorG := e.Group("/api/doctor",
		auth.Middleware(secret), auth.RequireRole(auth.RoleDoctor))

	admin.NewHandler(adminService, secret, cfg.AuthTokenTTL).RegisterRoutes(public, superG, hospitalG)
	doctor.NewHandler(doctorService, secret, cfg.AuthTokenTTL).RegisterRoutes(public, hospitalG, doctorG)
	patient.NewHandler(patientService).RegisterRoutes(public, hospitalG, doctorG)
	appointment.NewHandler(appointmentService).RegisterRoutes(hospitalG, doctorG)
	testrecord.NewHandler(testService).RegisterRoutes(doctorG)
	rawdata.NewHandler(rawStore).RegisterRoutes(public)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// Start server with graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
