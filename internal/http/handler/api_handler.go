package handler

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/tinylink/internal/app/service"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger      *zap.Logger
	LinkService service.LinkService
}

// APIHandler implements the management API endpoints.
type APIHandler struct {
	logger      *zap.Logger
	linkService service.LinkService
	validate    *validator.Validate
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:      logger.Named("api"),
		linkService: deps.LinkService,
		validate:    validator.New(),
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router) {
	api := router.Group("/api")
	{
		links := api.Group("/links")
		{
			links.Post("/", h.CreateLink)
			links.Get("/", h.ListLinks)
			links.Get("/:code", h.GetLink)
			links.Delete("/:code", h.DeleteLink)
		}
	}
}

// CreateLinkRequest represents the request body for creating a link.
type CreateLinkRequest struct {
	TargetURL  string `json:"target_url" validate:"required"`
	CustomCode string `json:"custom_code,omitempty"`
}

// CreateLink handles POST /api/links
func (h *APIHandler) CreateLink(c *fiber.Ctx) error {
	var req CreateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "target_url is required")
	}

	link, err := h.linkService.CreateLink(requestContext(c), service.CreateLinkInput{
		TargetURL:  req.TargetURL,
		CustomCode: req.CustomCode,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidURL):
			return errorJSON(c, fiber.StatusBadRequest, "target_url must be an absolute URL")
		case errors.Is(err, service.ErrInvalidCode):
			return errorJSON(c, fiber.StatusBadRequest, "custom_code must be 6-8 alphanumeric characters")
		case errors.Is(err, service.ErrCodeExists):
			return errorJSON(c, fiber.StatusConflict, "custom_code is already in use")
		case errors.Is(err, service.ErrGenerationExhausted):
			h.logger.Error("failed to allocate short code", zap.Error(err))
			return errorJSON(c, fiber.StatusInternalServerError, "could not allocate a short code, try again")
		default:
			h.logger.Error("failed to create link", zap.Error(err))
			return errorJSON(c, fiber.StatusInternalServerError, "failed to create link")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(link)
}

// ListLinks handles GET /api/links
func (h *APIHandler) ListLinks(c *fiber.Ctx) error {
	links, err := h.linkService.ListLinks(requestContext(c))
	if err != nil {
		h.logger.Error("failed to list links", zap.Error(err))
		return errorJSON(c, fiber.StatusInternalServerError, "failed to list links")
	}
	return c.JSON(links)
}

// GetLink handles GET /api/links/:code
func (h *APIHandler) GetLink(c *fiber.Ctx) error {
	code := c.Params("code")

	link, err := h.linkService.GetLink(requestContext(c), code)
	if err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "link not found")
		}
		h.logger.Error("failed to get link", zap.Error(err), zap.String("code", code))
		return errorJSON(c, fiber.StatusInternalServerError, "failed to get link")
	}

	return c.JSON(link)
}

// DeleteLink handles DELETE /api/links/:code
func (h *APIHandler) DeleteLink(c *fiber.Ctx) error {
	code := c.Params("code")

	if err := h.linkService.DeleteLink(requestContext(c), code); err != nil {
		if errors.Is(err, service.ErrLinkNotFound) {
			return errorJSON(c, fiber.StatusNotFound, "link not found")
		}
		h.logger.Error("failed to delete link", zap.Error(err), zap.String("code", code))
		return errorJSON(c, fiber.StatusInternalServerError, "failed to delete link")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "link deleted",
	})
}

func requestContext(c *fiber.Ctx) context.Context {
	if ctx := c.UserContext(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func errorJSON(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}
