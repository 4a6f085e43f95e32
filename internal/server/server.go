package server

import (
	"context"

	"wine-concierge-be/internal/bootstrap"
	"wine-concierge-be/internal/config"
	"wine-concierge-be/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	bodyLimit := cfg.App.UploadMaxBytes + 1024*1024 // multipart overhead
	app := fiber.New(fiber.Config{
		AppName:   "wine-concierge",
		BodyLimit: bodyLimit,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.CorsAllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	app.Use(otelfiber.Middleware(otelfiber.WithNext(func(c *fiber.Ctx) bool {
		return c.Path() == "/metrics"
	})))

	if container.Metrics != nil {
		app.Use(serverutils.MetricsMiddleware(container.Metrics))
		app.Get("/metrics", adaptor.HTTPHandler(container.Metrics.Handler()))
	}

	app.Use(serverutils.ErrorHandlerMiddleware())

	registerRoutes(app, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	s.container.Logger.Info("SERVER", "listening", map[string]interface{}{
		"addr": "http://localhost:" + s.cfg.App.Port,
	})
	return s.app.Listen(":" + s.cfg.App.Port)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// routes stay at the root; the web client calls /ask, /upload and /weather directly
func registerRoutes(app *fiber.App, c *bootstrap.Container) {
	c.ConciergeController.RegisterRoutes(app)
	c.DocumentController.RegisterRoutes(app)
}
