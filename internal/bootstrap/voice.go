package bootstrap

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"

	"github.com/eleven-am/voicestream/internal/feed"
	"github.com/eleven-am/voicestream/internal/gateway"
	"github.com/eleven-am/voicestream/internal/health"
	"github.com/eleven-am/voicestream/internal/session"
	"github.com/eleven-am/voicestream/internal/transcription"
)

func ProvideLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

func ProvideEngine(cfg *Config, logger *slog.Logger) (transcription.Transcriber, error) {
	return transcription.NewClient(transcription.Config{
		Endpoint: cfg.WhisperAddr,
		Timeout:  time.Duration(cfg.WhisperTimeoutMs) * time.Millisecond,
	}, logger)
}

func ProvideFeed(lc fx.Lifecycle, cfg *Config, logger *slog.Logger) (feed.Publisher, error) {
	if cfg.RedisAddr == "" {
		return feed.NewNop(), nil
	}

	publisher, err := feed.NewRedis(feed.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return publisher.Close()
		},
	})
	return publisher, nil
}

func ProvideRegistry(lc fx.Lifecycle, cfg *Config, engine transcription.Transcriber, publisher feed.Publisher, logger *slog.Logger) *session.Registry {
	registry := session.NewRegistry(session.RegistryConfig{
		Engine: engine,
		Feed:   publisher,
		Session: session.Config{
			SampleRate:       cfg.SampleRate,
			PollInterval:     cfg.PollInterval(),
			OverlapWindow:    cfg.OverlapWindow(),
			Language:         cfg.Language,
			ReducedPrecision: cfg.ReducedPrecision,
		},
		Log: logger,
	})

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			registry.CloseAll()
			return nil
		},
	})
	return registry
}

func ProvideGatewayHandler(registry *session.Registry, logger *slog.Logger) *gateway.Handler {
	return gateway.NewHandler(registry, logger)
}

func ProvideHealthHandler(registry *session.Registry, engine transcription.Transcriber) *health.Handler {
	var probe health.Probe
	if p, ok := engine.(interface{ Ping(context.Context) error }); ok {
		probe = p.Ping
	}
	return health.NewHandler(registry, probe)
}

func RegisterRoutes(e *echo.Echo, gw *gateway.Handler, hc *health.Handler) {
	gw.RegisterRoutes(e)
	hc.RegisterRoutes(e)
}

var VoiceModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideEngine,
		ProvideFeed,
		ProvideRegistry,
		ProvideGatewayHandler,
		ProvideHealthHandler,
	),
	fx.Invoke(RegisterRoutes),
)
