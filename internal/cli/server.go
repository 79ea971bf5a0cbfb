package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quiz-delivery-service/internal/app"
	"quiz-delivery-service/internal/config"
	"quiz-delivery-service/internal/infra/memory"
	redisinfra "quiz-delivery-service/internal/infra/redis"
	transport "quiz-delivery-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply migrations before serving")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string, migrate bool) error {
	cfg, logger, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()
	if err := cfg.ValidateAuth(); err != nil {
		return err
	}

	stack, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer stack.close()

	if migrate {
		if err := stack.migrator.Migrate(ctx); err != nil {
			return err
		}
	}

	var (
		limiter   app.AttemptLimiter
		sessions  app.SessionStore
		pingRedis func(context.Context) error
	)
	attemptWindow := config.TTLDuration(cfg.Auth.AttemptWindow, 15*time.Minute)
	if cfg.Redis.Addr != "" {
		client, err := redisinfra.Connect(ctx, redisinfra.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer client.Close()
		limiter = redisinfra.NewAttemptLimiter(client, cfg.Auth.MaxAttempts, attemptWindow)
		sessions = redisinfra.NewSessionStore(client)
		pingRedis = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	} else {
		logger.Warn("redis not configured; attempt limits and sign-outs are per instance")
		limiter = memory.NewAttemptLimiter(cfg.Auth.MaxAttempts, attemptWindow)
		sessions = memory.NewSessionStore()
	}

	bridge := app.NewIdentityBridge(stack.store, config.TTLDuration(cfg.Identity.ResolveTimeout, 5*time.Second), logger)
	authSvc := app.NewAuthService(stack.store, bridge, limiter, sessions, app.AuthOptions{
		Secret:     cfg.Auth.Secret,
		SessionTTL: config.TTLDuration(cfg.Auth.SessionTTL, 24*time.Hour),
		Logger:     logger,
	})
	setupSvc := app.NewSetupService(stack.store, stack.migrator, stack.diagnoser, app.SetupOptions{
		PingRedis: pingRedis,
		APIKey:    cfg.Store.APIKey,
		Logger:    logger,
	})

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := transport.NewRouter(transport.RouterDeps{
		Auth:           authSvc,
		Admin:          app.NewAdminService(stack.store, logger),
		Users:          app.NewUserService(stack.store, cfg.Quiz.Price, logger),
		Setup:          setupSvc,
		SetupKey:       cfg.Store.APIKey,
		AllowedOrigins: cfg.AllowedOrigins(),
		Logger:         logger,
	})

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      router,
		ReadTimeout:  config.TTLDuration(cfg.Server.ReadTimeout, 15*time.Second),
		WriteTimeout: config.TTLDuration(cfg.Server.WriteTimeout, 15*time.Second),
	}

	go func() {
		logger.Info("starting quiz service", zap.String("addr", server.Addr), zap.String("store", cfg.Store.Driver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		logger.Info("shutting down server")
	case <-ctx.Done():
		logger.Info("context canceled, shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
