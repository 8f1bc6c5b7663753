package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/frahmantamala/retail-backoffice/api"
	"github.com/frahmantamala/retail-backoffice/internal"
	"github.com/frahmantamala/retail-backoffice/internal/auth"
	authPostgres "github.com/frahmantamala/retail-backoffice/internal/auth/postgres"
	"github.com/frahmantamala/retail-backoffice/internal/catalog"
	catalogPostgres "github.com/frahmantamala/retail-backoffice/internal/catalog/postgres"
	"github.com/frahmantamala/retail-backoffice/internal/core/database"
	"github.com/frahmantamala/retail-backoffice/internal/core/events"
	"github.com/frahmantamala/retail-backoffice/internal/permission"
	permissionPostgres "github.com/frahmantamala/retail-backoffice/internal/permission/postgres"
	"github.com/frahmantamala/retail-backoffice/internal/transport"
	"github.com/frahmantamala/retail-backoffice/internal/transport/rest"
	"github.com/frahmantamala/retail-backoffice/internal/transport/swagger"
	"github.com/frahmantamala/retail-backoffice/internal/user"
	userPostgres "github.com/frahmantamala/retail-backoffice/internal/user/postgres"
	"github.com/frahmantamala/retail-backoffice/pkg/logger"

	"github.com/go-chi/chi"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	Gorm     *gorm.DB
	DB       *sqlx.DB
	EventBus *events.EventBus
	Router   *chi.Mux
	Logger   *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		deps.Logger.Error("Failed to set up routes", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "driver", deps.Config.Database.Driver)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := internal.WithTimeout(context.Background(), deps.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.EventBus.Wait(ctx); err != nil {
			deps.Logger.Error("Event handlers did not finish", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("Server failed to start", "error", err)
			closeDB(deps)
			os.Exit(1)
		}
	}

	closeDB(deps)
	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger

	if _, err := swagger.Load(context.Background(), api.OpenAPI); err != nil {
		return err
	}

	base := transport.NewBaseHandler(lg)
	catalogReader := catalogPostgres.NewReader(deps.DB)

	tokenGen := auth.NewJWTTokenGenerator(
		cfg.Security.JWTAccessSecret,
		cfg.Security.JWTRefreshSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(deps.Gorm), tokenGen, cfg.Security.BCryptCost)

	permissionService := permission.NewService(
		permissionPostgres.NewGrantRepository(deps.Gorm),
		catalogReader,
		deps.EventBus,
		lg,
	)

	sqlDB, err := deps.Gorm.DB()
	if err != nil {
		return err
	}

	rest.RegisterAllRoutes(deps.Router, rest.Options{
		DB:             sqlDB,
		Driver:         cfg.Database.Driver,
		AllowedOrigins: cfg.Server.Origins(),
		OpenAPI:        api.OpenAPI,
		Logger:         lg,
	}, rest.Handlers{
		Auth:       auth.NewHandler(base, authService),
		RBAC:       auth.NewRBACAuthorization(auth.NewPermissionChecker(), lg),
		User:       user.NewHandler(base, user.NewService(userPostgres.NewRepository(deps.DB))),
		Catalog:    catalog.NewHandler(base, catalog.NewService(catalogReader, lg)),
		Permission: permission.NewHandler(base, permissionService),
	})
	return nil
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	setupLogger(config.Observability.Logging)
	lg := logger.L()

	gormDB, err := database.Open(config.Database, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	db, err := database.SQLX(gormDB, config.Database.Driver)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sqlx: %w", err)
	}

	bus := events.NewEventBus(lg)
	bus.Subscribe(events.EventTypeEmployeePermissionsReplaced, events.LogPermissionsReplaced(lg))

	return &Dependencies{
		Config:   config,
		Gorm:     gormDB,
		DB:       db,
		EventBus: bus,
		Router:   chi.NewRouter(),
		Logger:   lg,
	}, nil
}

// closeDB closes the pool shared by gorm and sqlx.
func closeDB(deps *Dependencies) {
	if err := deps.DB.Close(); err != nil {
		deps.Logger.Error("Database close error", "error", err)
	}
}
