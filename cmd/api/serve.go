package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"slotbook/cmd/internal/config"
	"slotbook/cmd/internal/domain/database"
	"slotbook/cmd/internal/domain/database/repository"
	cognitoclient "slotbook/cmd/internal/integration/aws/cognito"
	"slotbook/cmd/internal/middleware"
	"slotbook/cmd/internal/queue"
	"slotbook/cmd/internal/routes"
	"slotbook/cmd/internal/service"
	"slotbook/cmd/internal/telemetry"
	"slotbook/cmd/internal/utils"
	"slotbook/cmd/internal/utils/apierror"
	"slotbook/cmd/internal/utils/validators"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const shutdownTimeout = 10 * time.Second

func runServe(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  "slotbook-api",
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	db, err := database.Init(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	verifier, err := newVerifier(ctx, cfg)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(cfg)
	if err != nil {
		return err
	}

	backend, closeBackend, err := newDispatchBackend(cfg, formatter)
	if err != nil {
		return err
	}
	defer closeBackend()
	dispatcher := queue.NewDispatcher(backend, cfg.QueueBuffer)

	// Getting repositories
	userRepo := repository.NewUserRepository(db)
	apptRepo := repository.NewAppointmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Getting services
	validate := validators.New()
	userService := service.NewUserService(userRepo, validate)
	userService.FilesBaseURL = cfg.FilesBaseURL
	notificationService := service.NewNotificationService(notificationRepo, userRepo)
	apptService := service.NewAppointmentService(apptRepo, userRepo, notificationService, dispatcher, validate)
	apptService.Formatter = formatter
	apptService.FilesBaseURL = cfg.FilesBaseURL

	e := newEcho(cfg)
	routes.Register(e,
		middleware.Auth(verifier),
		routes.NewAppointmentDefault(apptService),
		routes.NewUserDefault(userService),
		routes.NewNotificationDefault(notificationService),
	)

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		dispatcher.Run(dispatchCtx)
	}()

	serverErr := make(chan error, 1)
	go func() {
		log.Infof("listening on :%s (queue=%s, auth=%s)", cfg.Port, cfg.QueueBackend, cfg.AuthMode)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Infof("shutting down")
	case err = <-serverErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := e.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Errorf("failed to shut down http server: %v", shutdownErr)
	}

	// The dispatcher stops after the server so in-flight cancellations still
	// get their job flushed.
	stopDispatch()
	wg.Wait()
	return err
}

func newEcho(cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(cfg.GommonLevel())
	e.HTTPErrorHandler = apierror.HTTPErrorHandler

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echo.WrapMiddleware(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "slotbook-api")
	}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			log.Infof("%s %s %d %s request_id=%s", v.Method, v.URI, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{AllowOrigins: cfg.AllowedOrigins()}))
	return e
}

func newVerifier(ctx context.Context, cfg *config.Config) (middleware.TokenVerifier, error) {
	if cfg.AuthMode == "cognito" {
		client, err := cognitoclient.InitCognitoClient(ctx, cfg.CognitoRegion)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize cognito client: %w", err)
		}
		return client, nil
	}
	return middleware.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer), nil
}

func newFormatter(cfg *config.Config) (*utils.DateFormatter, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return utils.NewDateFormatter(cfg.Locale, loc), nil
}
