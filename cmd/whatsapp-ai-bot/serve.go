package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Davidgelis/whatsapp-ai-bot/internal/accounts"
	"github.com/Davidgelis/whatsapp-ai-bot/internal/config"
	"github.com/Davidgelis/whatsapp-ai-bot/internal/conversation"
	"github.com/Davidgelis/whatsapp-ai-bot/internal/db"
	"github.com/Davidgelis/whatsapp-ai-bot/internal/handlers"
	"github.com/Davidgelis/whatsapp-ai-bot/internal/logger"
	"github.com/Davidgelis/whatsapp-ai-bot/internal/openai"
	"github.com/Davidgelis/whatsapp-ai-bot/internal/project"
	"github.com/Davidgelis/whatsapp-ai-bot/internal/relay"
	"github.com/Davidgelis/whatsapp-ai-bot/internal/server"
	"github.com/Davidgelis/whatsapp-ai-bot/internal/whatsapp"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideProjectService,
			provideConversationService,
			provideAccountsService,
			provideOpenAIClient,
			provideWhatsAppClient,
			provideRelayProcessor,
			provideServerHandler(providePingHandler),
			provideServerHandler(provideAuthHandler),
			provideServerHandler(provideWebhookHandler),
			provideServerHandler(provideAdminHandler),
			provideServer,
		),
		fx.Invoke(startServer),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config) (*pgxpool.Pool, error) {
	conn, err := db.Open(context.Background(), cfg.Postgres)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { conn.Close(); return nil }})
	return conn, nil
}

func provideProjectService(log *slog.Logger, conn *pgxpool.Pool) *project.Service {
	return project.NewService(log, conn)
}

func provideConversationService(log *slog.Logger, conn *pgxpool.Pool) *conversation.Service {
	return conversation.NewService(log, conn)
}

func provideAccountsService(log *slog.Logger, conn *pgxpool.Pool) *accounts.Service {
	return accounts.NewService(log, conn)
}

func provideOpenAIClient(log *slog.Logger, cfg config.Config) *openai.Client {
	timeout := time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second
	return openai.NewClient(log, cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, timeout)
}

func provideWhatsAppClient(log *slog.Logger, cfg config.Config) *whatsapp.Client {
	timeout := time.Duration(cfg.WhatsApp.TimeoutSeconds) * time.Second
	return whatsapp.NewClient(log, cfg.WhatsApp.BaseURL, timeout)
}

func provideRelayProcessor(log *slog.Logger, cfg config.Config, projects *project.Service, messages *conversation.Service, completer *openai.Client, sender *whatsapp.Client) *relay.Processor {
	return relay.NewProcessor(log, projects, messages, completer, sender, cfg.WhatsApp.Token)
}

func providePingHandler() *handlers.PingHandler {
	return handlers.NewPingHandler()
}

func provideAuthHandler(log *slog.Logger, cfg config.Config, accountService *accounts.Service) *handlers.AuthHandler {
	return handlers.NewAuthHandler(log, accountService, cfg.Auth.JWTSecret, jwtExpiry(log, cfg))
}

func provideWebhookHandler(log *slog.Logger, cfg config.Config, processor *relay.Processor) *handlers.WebhookHandler {
	return handlers.NewWebhookHandler(log, cfg.Webhook.VerifyToken, processor)
}

func provideAdminHandler(log *slog.Logger, projects *project.Service, conversations *conversation.Service) *handlers.AdminHandler {
	return handlers.NewAdminHandler(log, projects, conversations)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Auth.JWTSecret, params.ServerHandlers)
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner, cfg config.Config, accountService *accounts.Service) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.Migrate(cfg.Postgres.URL()); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			if err := accountService.EnsureAdmin(ctx, cfg.Admin.Email, cfg.Admin.Password); err != nil {
				return err
			}
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}

func jwtExpiry(log *slog.Logger, cfg config.Config) time.Duration {
	expiry, err := time.ParseDuration(cfg.Auth.JWTExpiresIn)
	if err != nil || expiry <= 0 {
		log.Warn("invalid jwt_expires_in, using 24h", slog.String("value", cfg.Auth.JWTExpiresIn))
		return 24 * time.Hour
	}
	return expiry
}
