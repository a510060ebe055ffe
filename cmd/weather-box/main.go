package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	httpapi "github.com/i474232898/weather-box/internal/api/http"
	"github.com/i474232898/weather-box/internal/config"
	"github.com/i474232898/weather-box/internal/store"
	"github.com/i474232898/weather-box/internal/weather/providers"
	"github.com/i474232898/weather-box/internal/widget"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	sugar, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = sugar.Sync() }()

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	opts := []providers.Option{providers.WithMaxRetries(cfg.ProviderMaxRetries)}
	if base := cfg.BaseURL(); base != "" {
		opts = append(opts, providers.WithBaseURL(base))
	}
	provider, err := providers.New(cfg.Provider, httpClient, cfg.APIKey(), opts...)
	if err != nil {
		sugar.Fatalw("failed to build weather provider", "provider", cfg.Provider, "error", err)
	}

	st, closeStore := newStore(cfg, sugar)
	defer closeStore()
	surface := store.NewSurface(st, sugar)

	wopts := []widget.Option{
		widget.WithSurface(surface),
		widget.WithLogger(sugar),
		widget.WithFetchTimeout(cfg.FetchTimeout),
	}
	if cfg.Sequenced {
		wopts = append(wopts, widget.WithSequencedRenders())
	}
	w := widget.New(provider, wopts...)
	w.OnContentChanged(surface.Record)

	// Unset attributes stay absent so the first change from the API is
	// treated as an initial assignment.
	for name, value := range map[string]string{
		widget.AttrCity:       cfg.City,
		widget.AttrBackground: cfg.Background,
		widget.AttrInterval:   cfg.Interval,
	} {
		if value != "" {
			w.SetAttribute(name, value)
		}
	}
	w.Attach()
	defer w.Close()

	app := fiber.New(fiber.Config{
		AppName:               "weather-box",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "weather-box",
			"provider": provider.Name(),
		})
	})

	limiter := rate.NewLimiter(rate.Limit(cfg.AttributeRate), cfg.AttributeBurst)
	httpapi.RegisterRoutes(app, w, st, limiter)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			sugar.Warnw("fiber server stopped", "error", err)
		}
	}()
	sugar.Infow("weather-box started", "port", cfg.Port, "provider", provider.Name(), "store", cfg.StoreBackend)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		sugar.Errorw("error during shutdown", "error", err)
	}
}

func newStore(cfg *config.AppConfig, sugar *zap.SugaredLogger) (store.Store, func()) {
	if cfg.StoreBackend != "redis" {
		return store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge), func() {}
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		sugar.Fatalw("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
	}

	return store.NewRedisStore(client, cfg.StoreMaxHistory, cfg.StoreMaxAge), func() {
		if err := client.Close(); err != nil {
			sugar.Warnw("failed to close redis client", "error", err)
		}
	}
}
