package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/castlink/auth"
	"github.com/castlink/auth/database"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := auth.LoadConfig(*configPath)
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	slogger := newSlog(cfg.Log.Level)
	logger := auth.NewSlogLogger(slogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.RunMigrations(cfg.Database.DSN); err != nil {
		slogger.Error("migration failed", "error", err)
		os.Exit(1)
	}

	db, err := database.Connect(ctx, cfg.Database.DSN)
	if err != nil {
		slogger.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := database.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		slogger.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	defer rdb.Close()

	repos := auth.NewRepositoryManager(db)
	repos.MustValidate()

	tokens := auth.NewTokenService([]byte(cfg.Auth.SigningKey), cfg.Auth.Issuer, logger)
	store := auth.NewRedisTokenStore(rdb, logger)
	metrics := auth.NewPrometheusMetrics(prometheus.DefaultRegisterer)

	sessions := auth.NewSessionManager(repos.Users(), tokens, store,
		auth.WithLogger(logger),
		auth.WithMetrics(metrics),
		auth.WithAccessTokenTTL(cfg.AccessTokenTTL()),
		auth.WithRefreshTokenTTL(cfg.RefreshTokenTTL()),
	)

	app := fiber.New(fiber.Config{
		AppName:               "castlink-auth",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(requestLogger(slogger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	controller := auth.NewAuthController(sessions, auth.WithControllerLogger(logger))
	guard := auth.NewBearerGuard(tokens, logger)
	auth.RegisterAuthRoutes(app, controller, guard)

	go func() {
		slogger.Info("server listening", "addr", cfg.Server.Addr)
		if err := app.Listen(cfg.Server.Addr); err != nil {
			slogger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	slogger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slogger.Error("shutdown error", "error", err)
	}
}

func newSlog(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func requestLogger(logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		logger.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration", time.Since(start).String(),
			"request_id", c.Locals(requestid.ConfigDefault.ContextKey),
		)
		return err
	}
}
