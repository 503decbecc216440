package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sifan077/tinylink/internal/app/service"
	inthttp "github.com/sifan077/tinylink/internal/http/handler"
	"github.com/sifan077/tinylink/internal/http/middleware"
	"go.uber.org/zap"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 10 * time.Second
	idleTimeout  = 60 * time.Second
)

// Dependencies bundles what the HTTP server needs. Postgres and Redis are
// only used for readiness and may be nil.
type Dependencies struct {
	Logger      *zap.Logger
	Postgres    *pgxpool.Pool
	Redis       *redis.Client
	LinkService service.LinkService
}

// Server wraps the Fiber application and its dependencies.
type Server struct {
	app  *fiber.App
	deps Dependencies
}

// New creates the HTTP server with middleware and all routes registered.
func New(deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		AppName:               "tinylink",
		ReadTimeout:           readTimeout,
		WriteTimeout:          writeTimeout,
		IdleTimeout:           idleTimeout,
		DisableStartupMessage: true,
	})

	s := &Server{
		app:  app,
		deps: deps,
	}

	s.registerMiddleware()
	s.registerRoutes()
	return s
}

// App exposes the underlying Fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the Fiber server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the Fiber server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

func (s *Server) registerMiddleware() {
	s.app.Use(
		middleware.RequestID(),
		middleware.Recovery(s.deps.Logger),
		middleware.Logger(s.deps.Logger),
		middleware.Metrics(),
		middleware.CORS(),
	)
}

func (s *Server) registerRoutes() {
	apiHandler := inthttp.NewAPIHandler(inthttp.APIDeps{
		Logger:      s.deps.Logger,
		LinkService: s.deps.LinkService,
	})
	apiHandler.Register(s.app)

	// Registered last: /:code would otherwise shadow single-segment routes.
	redirectHandler := inthttp.NewRedirectHandler(inthttp.RedirectDeps{
		Logger:      s.deps.Logger,
		LinkService: s.deps.LinkService,
		Checks:      s.readinessChecks(),
	})
	redirectHandler.Register(s.app)
}

func (s *Server) readinessChecks() []inthttp.ReadinessCheck {
	var checks []inthttp.ReadinessCheck
	if s.deps.Postgres != nil {
		checks = append(checks, inthttp.ReadinessCheck{
			Name: "postgres",
			Ping: s.deps.Postgres.Ping,
		})
	}
	if s.deps.Redis != nil {
		checks = append(checks, inthttp.ReadinessCheck{
			Name: "redis",
			Ping: func(ctx context.Context) error {
				return s.deps.Redis.Ping(ctx).Err()
			},
		})
	}
	return checks
}
