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

	httpapi "github.com/i474232898/weather-bot/internal/api/http"
	"github.com/i474232898/weather-bot/internal/bot"
	"github.com/i474232898/weather-bot/internal/chart"
	"github.com/i474232898/weather-bot/internal/config"
	"github.com/i474232898/weather-bot/internal/scheduler"
	"github.com/i474232898/weather-bot/internal/store"
	"github.com/i474232898/weather-bot/internal/transport/telegram"
	"github.com/i474232898/weather-bot/internal/weather"
	"github.com/i474232898/weather-bot/internal/weather/providers"
)

func main() {
	// Load configuration. Missing secrets abort here.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	provider := providers.NewOpenWeatherProvider(httpClient, providers.OpenWeatherConfig{
		APIKey:            cfg.OpenWeatherAPIKey,
		BaseURL:           cfg.OpenWeatherBaseURL,
		RequestsPerMinute: cfg.RateLimit,
	})
	service := weather.NewService(provider, cfg.HTTPTimeout)

	renderer, err := chart.NewRenderer(cfg.ChartDir)
	if err != nil {
		log.Fatalf("failed to prepare chart directory: %v", err)
	}

	sessions := store.NewMemoryStore()
	router := bot.NewRouter(service, renderer, sessions)

	// Janitor for chart files whose delivery never finished.
	sched := scheduler.New(renderer, cfg.JanitorInterval, cfg.ChartMaxAge)
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Telegram: one queue per chat so a chat's messages are handled in order.
	var responder *telegram.Responder
	dispatcher := bot.NewDispatcher(func(ctx context.Context, msg bot.Message) {
		if err := router.Handle(ctx, msg, responder); err != nil {
			log.Printf("ERROR: reply to session %s failed: %v", msg.SessionID, err)
		}
	}, cfg.MaxWorkers, cfg.HandlerTimeout)

	poller, err := telegram.NewPoller(cfg.TelegramToken, dispatcher)
	if err != nil {
		log.Fatalf("failed to start telegram transport: %v", err)
	}
	responder = telegram.NewResponder(poller.API())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var app *fiber.App
	if cfg.Port != "" {
		app = newHTTPApp(router, sessions, cfg.HandlerTimeout)
		go func() {
			if err := app.Listen(":" + cfg.Port); err != nil {
				log.Printf("fiber server stopped: %v", err)
			}
		}()
	}

	log.Println("INFO: weather bot started")
	poller.Run(ctx)

	log.Println("INFO: shutting down")
	dispatcher.Close()

	if app != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("error during shutdown: %v", err)
		}
	}
}

func newHTTPApp(router httpapi.Handler, sessions *store.MemoryStore, handlerTimeout time.Duration) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "weather-bot",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          handlerTimeout + 5*time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	// Bound each request the same way the dispatcher bounds a chat message.
	app.Use(func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"service":  "weather-bot",
			"sessions": sessions.Len(),
		})
	})

	httpapi.RegisterRoutes(app, router)
	return app
}
