package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Yulia51188/fish-house/internal/bot"
	"github.com/Yulia51188/fish-house/internal/commerce"
	"github.com/Yulia51188/fish-house/internal/config"
	"github.com/Yulia51188/fish-house/internal/conversation"
	"github.com/Yulia51188/fish-house/internal/credentials"
	"github.com/Yulia51188/fish-house/internal/logging"
	"github.com/Yulia51188/fish-house/internal/metrics"
	"github.com/Yulia51188/fish-house/internal/paths"
	"github.com/Yulia51188/fish-house/internal/session"
	"github.com/Yulia51188/fish-house/internal/session/dynamostore"
	"github.com/Yulia51188/fish-house/internal/session/filestore"
	"github.com/Yulia51188/fish-house/internal/session/redisstore"
	"github.com/Yulia51188/fish-house/internal/telegram"
)

const maxLogSize = 200 * 1024

func runBot(cmd *cobra.Command, _ []string) error {
	dev, _ := cmd.Flags().GetBool("dev")
	configPath, _ := cmd.Flags().GetString("config")

	p := paths.Default()
	if dev {
		p = paths.DevPaths()
	}
	if configPath == "" {
		configPath = p.ConfigPath
	}

	// Initialize logger BEFORE config load (default INFO level)
	slogger, logger, err := logging.NewSlogLogger(p.LogPath)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer logger.Close()
	slog.SetDefault(slogger)

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("Failed to load config", "path", configPath, "error", err)
		return err
	}
	if dev {
		slog.Info("Running in DEVELOPMENT mode", "config", configPath)
		cfg.LogLevel = "debug"
		cfg.Session.Backend = config.BackendFile
	}
	if cfg.LogLevel != "" {
		logger.SetLevel(cfg.LogLevel)
		slog.Debug("Log level set from config", "level", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.StartRotation(ctx, maxLogSize, time.Minute)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	store, closeStore, err := openSessionStore(ctx, cfg, p)
	if err != nil {
		slog.Error("Failed to open session store", "backend", cfg.Session.Backend, "error", err)
		return err
	}
	defer closeStore()

	client := commerce.New(cfg.Commerce.BaseURL,
		commerce.WithTimeout(cfg.Commerce.Timeout),
		commerce.WithObserver(m))
	tokens, err := credentials.New(client, cfg.Commerce.ClientID, cfg.Commerce.ClientSecret,
		credentials.WithTTL(cfg.Commerce.TokenTTL),
		credentials.WithObserver(m),
		credentials.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	api, err := bot.NewAPI(cfg.BotToken, cfg.ProxyURL)
	if err != nil {
		slog.Error("Failed to create bot", "error", err)
		return err
	}
	sender := telegram.NewSender(api)

	machine := conversation.New(store, client.Authorized(tokens), sender,
		conversation.WithPageLimit(cfg.MenuPageLimit),
		conversation.WithCartVerification(cfg.VerifyCartAdd),
		conversation.WithObserver(m),
		conversation.WithLogger(slog.Default()))

	b := bot.New(api, machine,
		bot.WithAllowedUsers(cfg.AllowedUsers),
		bot.WithWorkers(cfg.Workers),
		bot.WithSender(sender))
	if err := b.RegisterCommands(); err != nil {
		slog.Warn("Failed to register commands", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	runCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error {
		defer cancel()
		return b.Run(runCtx)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return metrics.Serve(runCtx, cfg.MetricsAddr, metrics.NewHandler(reg))
		})
	}

	slog.Info("Telegram Bot started",
		"version", versionString(),
		"username", api.Self.UserName,
		"session_backend", cfg.Session.Backend,
		"restricted", len(cfg.AllowedUsers) > 0)
	err = g.Wait()
	slog.Info("Bot stopped")
	return err
}

// openSessionStore builds the configured session backend. The returned
// close function is always safe to call.
func openSessionStore(ctx context.Context, cfg *config.Config, p paths.Paths) (session.Store, func(), error) {
	noop := func() {}
	s := cfg.Session

	switch s.Backend {
	case config.BackendRedis:
		store := redisstore.New(s.RedisAddr, s.RedisPassword, s.RedisDB,
			redisstore.WithPrefix(s.KeyPrefix),
			redisstore.WithTTL(s.TTL))
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			_ = store.Close()
			return nil, noop, fmt.Errorf("connect to redis at %s: %w", s.RedisAddr, err)
		}
		return store, func() { _ = store.Close() }, nil

	case config.BackendDynamoDB:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, noop, fmt.Errorf("load aws config: %w", err)
		}
		store, err := dynamostore.New(dynamodb.NewFromConfig(awsCfg), s.DynamoDBTable,
			dynamostore.WithPrefix(s.KeyPrefix),
			dynamostore.WithTTL(s.TTL))
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil

	case config.BackendFile:
		path := s.FilePath
		if path == "" {
			path = p.SessionFile
		}
		return filestore.New(path), noop, nil
	}
	return nil, noop, fmt.Errorf("unknown session backend %q", s.Backend)
}
