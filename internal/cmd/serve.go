package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/KevinKickass/OpenPedalCore/internal/api/rest"
	"github.com/KevinKickass/OpenPedalCore/internal/api/websocket"
	"github.com/KevinKickass/OpenPedalCore/internal/auth"
	"github.com/KevinKickass/OpenPedalCore/internal/catalog"
	"github.com/KevinKickass/OpenPedalCore/internal/events"
	"github.com/KevinKickass/OpenPedalCore/internal/notify"
	"github.com/KevinKickass/OpenPedalCore/internal/storage"
	"github.com/KevinKickass/OpenPedalCore/internal/system"
	"github.com/KevinKickass/OpenPedalCore/internal/workbench"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const adminPasswordEnv = "OPC_ADMIN_PASSWORD"

var reindex bool

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST and WebSocket server",
	Long: `Start the HTTP server with the power, catalog and workbench API and the
live WebSocket feed.

Users, API tokens and workbench state are kept in PostgreSQL. Set
database.enabled to false to keep them in memory instead.

Environment Variables:
  OPC_ADMIN_PASSWORD  - creates the admin user on first start if missing
  JWT_SECRET          - token signing secret (see auth.jwt_secret_env)
  OPC_<SECTION>_<KEY> - overrides any config key, e.g. OPC_SERVER_HTTP_PORT`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&reindex, "reindex", false, "rebuild the product index from catalog files before serving")
	serveCmd.Flags().Int("port", 0, "HTTP port (default from config)")
	serveCmd.Flags().String("admin-user", "admin", "username created from OPC_ADMIN_PASSWORD")

	viper.BindPFlag("server.http_port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("admin.username", serveCmd.Flags().Lookup("admin-user"))
}

type stores struct {
	auth      auth.Store
	workbench workbench.Store
	db        *storage.PostgresClient
}

func openStores(ctx context.Context) (stores, error) {
	if !cfg.Database.Enabled {
		logger.Warn("Database disabled, users and workbenches are kept in memory")
		return stores{auth: auth.NewMemoryStore(), workbench: workbench.NewMemoryStore()}, nil
	}

	db, err := storage.NewPostgresClient(ctx, cfg.Database, logger)
	if err != nil {
		return stores{}, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return stores{}, err
	}
	logger.Info("Database connected successfully")

	return stores{
		auth:      db,
		workbench: storage.NewStateStore(db, cfg.Workbench.Owner),
		db:        db,
	}, nil
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger.Info("Starting OpenPedalCore",
		zap.String("version", version),
		zap.String("commit", gitCommit))

	idx, err := catalog.OpenIndex(cfg.Catalog.IndexPath)
	if err != nil {
		return err
	}
	if reindex {
		if _, err := rebuildIndex(ctx, idx); err != nil {
			idx.Close()
			return err
		}
	}

	st, err := openStores(ctx)
	if err != nil {
		idx.Close()
		return err
	}

	authService := auth.NewService(st.auth, cfg.Auth, auth.NewPasswordHasher(), logger)
	if cfg.Auth.Enabled && !cfg.Auth.IsProductionReady() {
		logger.Warn("JWT secret is the development default or too short",
			zap.String("env", cfg.Auth.JWTSecretEnv))
	}
	if password := os.Getenv(adminPasswordEnv); password != "" {
		username := viper.GetString("admin.username")
		if err := authService.EnsureUser(ctx, username, password, auth.RoleAdmin); err != nil {
			logger.Error("Failed to create admin user", zap.String("username", username), zap.Error(err))
		}
	}

	streamer := events.NewStreamer()

	manager := workbench.NewManager(st.workbench, idx, streamer, workbench.Options{
		StorageKey:  cfg.Workbench.StorageKey,
		DefaultName: cfg.Workbench.DefaultName,
	}, logger)
	manager.Load(ctx)

	// A nil interface keeps the hub from asking for an auth message.
	var authenticator websocket.Authenticator
	if cfg.Auth.Enabled {
		authenticator = authService
	}
	hub := websocket.NewHub(logger, authenticator, streamer)

	restServer := rest.NewServer(cfg, idx, manager, hub, authService, logger)

	lifecycle := system.NewLifecycleManager(logger,
		system.Closer("catalog-index", idx.Close),
	)
	if st.db != nil {
		lifecycle.Register(system.Closer("postgres", func() error {
			st.db.Close()
			return nil
		}))
	}
	lifecycle.Register(system.Closer("event-streamer", func() error {
		streamer.Close()
		return nil
	}))
	if cfg.Notify.Enabled && len(cfg.Notify.URLs) > 0 {
		dispatcher := notify.NewDispatcher(streamer, notify.ShoutrrrSender{}, cfg.Notify.URLs, cfg.Notify.Cooldown, logger)
		lifecycle.Register(system.DispatcherComponent(dispatcher))
	}
	lifecycle.Register(
		system.HubComponent(hub),
		system.RESTComponent(restServer),
	)
	restServer.SetStatusProvider(lifecycle)

	if err := lifecycle.Start(); err != nil {
		shutdown(lifecycle)
		return err
	}
	logger.Info("OpenPedalCore started successfully", zap.String("address", restServer.Addr()))

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runErr error
	select {
	case <-sigCtx.Done():
		logger.Info("Shutdown signal received")
	case err := <-lifecycle.Failures():
		runErr = err
	}

	if err := shutdown(lifecycle); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return fmt.Errorf("server stopped: %w", runErr)
	}
	logger.Info("OpenPedalCore stopped successfully")
	return nil
}

func shutdown(lifecycle *system.LifecycleManager) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := lifecycle.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", zap.Error(err))
		return err
	}
	return nil
}
