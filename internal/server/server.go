package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"driver-parkmate/internal/auth"
	"driver-parkmate/internal/backend"
	"driver-parkmate/internal/config"
	"driver-parkmate/internal/lots"
	"driver-parkmate/internal/pass"
	"driver-parkmate/internal/session"
	"driver-parkmate/internal/stream"
	"driver-parkmate/internal/tracking"
)

type Server struct {
	App       *fiber.App
	Cfg       config.Config
	Redis     *redis.Client
	Backend   *backend.Client
	Stream    *stream.Hub
	Lots      *lots.Service
	Tracking  *tracking.Service
	Lifecycle *session.Lifecycle
	Bridge    *pass.Bridge
}

func NewServer(cfg config.Config, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	hub := stream.NewHub(redisClient)
	client := backend.NewClient(cfg.BackendURL)
	lotsSvc := lots.NewService(client, redisClient, hub)

	opts := tracking.DefaultWatchOptions()
	if cfg.LocationTimeoutMS > 0 {
		opts.FirstFixIn = time.Duration(cfg.LocationTimeoutMS) * time.Millisecond
	}
	trackingSvc := tracking.NewService(tracking.NewPushProvider(), opts, lotsSvc, hub)

	lifecycle := session.NewLifecycle(hub, cfg.DefaultRatePerHour, nil)
	bridge := pass.NewBridge(client, lifecycle, lotsSvc,
		time.Duration(cfg.ScanCooldownMS)*time.Millisecond, nil)

	s := &Server{
		App:       app,
		Cfg:       cfg,
		Redis:     redisClient,
		Backend:   client,
		Stream:    hub,
		Lots:      lotsSvc,
		Tracking:  trackingSvc,
		Lifecycle: lifecycle,
		Bridge:    bridge,
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	authMiddleware := auth.Middleware()

	lots.RegisterRoutes(s.App.Group("/lots"), s.Lots)
	tracking.RegisterRoutes(s.App.Group("/tracking"), s.Tracking, authMiddleware)
	session.RegisterRoutes(s.App.Group("/session"), s.Lifecycle, s.Backend, authMiddleware)
	pass.RegisterRoutes(s.App.Group("/scan"), s.Bridge, authMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

// Close stops background work owned by the server: the active watch and the
// billing clock.
func (s *Server) Close() {
	s.Tracking.StopWatch()
	s.Lifecycle.Close()
}
