package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fieldops360/auth-service/pkg/config"
	"github.com/fieldops360/auth-service/pkg/errx"
	"github.com/fieldops360/auth-service/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const apiPrefix = "/api/auth/v1"

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	logx.SetLevel(logx.ParseLevel(cfg.App.LogLevel))
	if cfg.App.Debug {
		logx.SetLevel(logx.LevelDebug)
	}

	logx.Infof("🚀 Starting %s (%s)...", cfg.App.Name, cfg.App.Env)

	// 3. Initialize Dependency Container
	container := NewContainer(cfg)
	defer container.Cleanup()

	// 4. Create Fiber App with Config
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
		ErrorHandler:          errx.FiberHandler(cfg.App.Debug),
		BodyLimit:             cfg.Server.BodyLimit,
		IdleTimeout:           cfg.Server.IdleTimeout,
		EnablePrintRoutes:     false,
	})

	// 5. Global Middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.App.Debug,
	}))

	app.Use(requestid.New(requestid.Config{
		Header:    fiber.HeaderXRequestID,
		Generator: uuid.NewString,
	}))
	app.Use(requestContext)

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Tenant-ID, X-Request-ID",
		AllowMethods:  "GET, POST, PUT, PATCH, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Tenant-ID} | ${respHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	if cfg.Metrics.Enabled {
		app.Use(container.Metrics.Middleware())
		app.Get(cfg.Metrics.Path, container.Metrics.Handler())
	}

	// 6. Health Check
	app.Get("/health", healthCheckHandler(container))

	// 7. Register Routes
	// Routes: /api/auth/v1/{health,login,refresh,logout,forgot-password,reset-password}
	//         /api/auth/v1/me, /api/auth/v1/users
	container.IAM.RegisterRoutes(app.Group(apiPrefix))
	logx.Info("✓ Auth and user routes registered")

	// 8. 404 Handler
	app.Use(notFoundHandler)

	printRouteSummary(cfg)

	// 9. Start Server with Graceful Shutdown
	startServer(app, cfg.Server)
}

// ============================================================================
// Handler Functions
// ============================================================================

// requestContext carries the request id into the user context so service
// logs can be correlated with access logs.
func requestContext(c *fiber.Ctx) error {
	if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
		c.SetUserContext(logx.ContextWithRequestID(c.UserContext(), id))
	}
	return c.Next()
}

// healthCheckHandler reports the platform database and the number of open
// tenant stores.
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		health := fiber.Map{
			"status":        "healthy",
			"service":       container.Config.App.Name,
			"version":       container.Config.App.Version,
			"tenant_stores": container.Stores.Len(),
		}

		if err := container.DB.PingContext(c.UserContext()); err != nil {
			health["db"] = "unhealthy"
			health["status"] = "degraded"
			if container.Config.App.Debug {
				health["db_error"] = err.Error()
			}
		} else {
			health["db"] = "healthy"
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}

		return c.Status(status).JSON(health)
	}
}

// notFoundHandler handles 404 errors
func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"success": false,
		"error": fiber.Map{
			"code":       "NOT_FOUND",
			"message":    "The requested endpoint does not exist",
			"path":       c.Path(),
			"method":     c.Method(),
			"request_id": c.GetRespHeader(fiber.HeaderXRequestID),
		},
	})
}

// ============================================================================
// Utility Functions
// ============================================================================

// printRouteSummary prints a summary of registered routes
func printRouteSummary(cfg *config.Config) {
	logx.Info("📋 Route Summary:")
	logx.Infof("   ├─ Auth: %s/{login,refresh,logout,forgot-password,reset-password}", apiPrefix)
	logx.Infof("   ├─ Profile: %s/me", apiPrefix)
	logx.Infof("   ├─ Users: %s/users", apiPrefix)
	if cfg.Metrics.Enabled {
		logx.Infof("   ├─ Metrics: %s", cfg.Metrics.Path)
	}
	logx.Info("   └─ Health: /health")
}

// startServer starts the server with graceful shutdown
func startServer(app *fiber.App, cfg config.ServerConfig) {
	addr := fmt.Sprintf(":%d", cfg.Port)

	go func() {
		logx.Info(strings.Repeat("=", 61))
		logx.Infof("🚀 Server listening on %s", addr)
		logx.Infof("💚 Health Check: http://localhost%s/health", addr)
		logx.Info(strings.Repeat("=", 61))

		if err := app.Listen(addr); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	gracefulShutdown(app, cfg)
}

// gracefulShutdown handles graceful server shutdown
func gracefulShutdown(app *fiber.App, cfg config.ServerConfig) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
