package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medichannel/medichannel/internal/config"
	"github.com/medichannel/medichannel/internal/domain/appointment"
	"github.com/medichannel/medichannel/internal/domain/billing"
	"github.com/medichannel/medichannel/internal/domain/directory"
	"github.com/medichannel/medichannel/internal/domain/messaging"
	"github.com/medichannel/medichannel/internal/platform/auth"
	"github.com/medichannel/medichannel/internal/platform/db"
	"github.com/medichannel/medichannel/internal/platform/events"
	appmw "github.com/medichannel/medichannel/internal/platform/middleware"
)

func main() {
	root := &cobra.Command{
		Use:   "medichannel-server",
		Short: "Appointment booking backend",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}
	var migrationsDir string
	migrateCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "migrations", "migrations directory")

	migrateUpCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrateUp(migrationsDir)
		},
	}
	migrateStatusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrateStatus(migrationsDir)
		},
	}
	migrateCmd.AddCommand(migrateUpCmd, migrateStatusCmd)
	root.AddCommand(serveCmd, migrateCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	// Event delivery: websocket hub for dashboards, log sink as a durable
	// trace, invoicer to open invoices on bookings.
	hub := events.NewHub()
	billingService := billing.NewService(billing.NewRepoPG(pool), logger)
	publisher := events.Fanout{
		hub,
		events.NewLogSink(logger),
		billing.NewInvoicer(billingService, logger),
	}

	directoryService := directory.NewService(
		directory.NewDoctorRepoPG(pool), directory.NewPatientRepoPG(pool), logger)
	appointmentService := appointment.NewService(
		appointment.NewRepoPG(pool), directoryService, directoryService,
		publisher, logger, cfg.SlotMinutes)
	messagingService := messaging.NewService(messaging.NewRepoPG(pool), publisher, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(appmw.Recovery(logger))
	e.Use(appmw.RequestID())
	e.Use(appmw.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization, "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		if err := pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "down"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	api := e.Group("/api/v1")
	if cfg.IsDev() && cfg.AuthSecret == "" {
		logger.Warn().Msg("running with permissive development auth")
		api.Use(auth.DevAuthMiddleware())
	} else {
		api.Use(auth.JWTMiddleware([]byte(cfg.AuthSecret)))
	}

	directory.NewHandler(directoryService).RegisterRoutes(api)
	appointment.NewHandler(appointmentService).RegisterRoutes(api)
	messaging.NewHandler(messagingService).RegisterRoutes(api)
	billing.NewHandler(billingService).RegisterRoutes(api)
	events.NewHubHandler(hub).RegisterRoutes(api)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func migrateUp(dir string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return err
	}
	defer pool.Close()

	n, err := db.NewMigrator(pool, dir).Up(ctx)
	if err != nil {
		return err
	}
	logger.Info().Int("applied", n).Msg("migrations complete")
	return nil
}

func migrateStatus(dir string) error {
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

	statuses, err := db.NewMigrator(pool, dir).Status(ctx)
	if err != nil {
		return err
	}
	for _, st := range statuses {
		state := "pending"
		if st.Applied {
			state = "applied " + st.AppliedAt.Format(time.RFC3339)
		}
		fmt.Printf("%03d %-30s %s\n", st.Version, st.Name, state)
	}
	return nil
}
