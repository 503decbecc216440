package handler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/tinylink/internal/app/service"
	"go.uber.org/zap"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck pings one dependency.
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// RedirectDeps groups dependencies required by redirect handlers.
type RedirectDeps struct {
	Logger      *zap.Logger
	LinkService service.LinkService
	Checks      []ReadinessCheck
}

// RedirectHandler serves short-code redirects and the probe endpoints.
type RedirectHandler struct {
	logger      *zap.Logger
	linkService service.LinkService
	checks      []ReadinessCheck
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger:      logger.Named("redirect"),
		linkService: deps.LinkService,
		checks:      deps.Checks,
	}
}

// Register wires probe and redirect routes. It must run after every other
// route group since /:code matches any single segment.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/health", h.Health)
	router.Get("/ready", h.Ready)
	router.Get("/:code", h.Resolve)
}

// Health reports liveness.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "tinylink",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready pings every configured dependency in parallel and answers 503 if any
// of them fails within readinessTimeout.
func (h *RedirectHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(requestContext(c), readinessTimeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]string, len(h.checks))
		healthy = true
	)
	for _, check := range h.checks {
		wg.Add(1)
		go func(check ReadinessCheck) {
			defer wg.Done()
			err := check.Ping(ctx)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				healthy = false
				results[check.Name] = "unavailable"
				h.logger.Warn("readiness check failed", zap.String("dependency", check.Name), zap.Error(err))
				return
			}
			results[check.Name] = "ok"
		}(check)
	}
	wg.Wait()

	status, code := "ok", fiber.StatusOK
	if !healthy {
		status, code = "unavailable", fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":       status,
		"dependencies": results,
	})
}

// Resolve handles GET /:code: 302 to the target and one recorded click.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	code := c.Params("code")

	target, err := h.linkService.ResolveAndRecordClick(requestContext(c), code)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "short link not found")
		}
		h.logger.Error("failed to resolve link", zap.Error(err), zap.String("code", code))
		return errorJSON(c, fiber.StatusInternalServerError, "internal server error")
	}

	h.logger.Debug("redirecting short link", zap.String("code", code), zap.String("target", target))
	return c.Redirect(target, fiber.StatusFound)
}
