package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/yourorg/habitgrid/internal/auth"
	"github.com/yourorg/habitgrid/internal/cache"
	"github.com/yourorg/habitgrid/internal/config"
	"github.com/yourorg/habitgrid/internal/live"
	"github.com/yourorg/habitgrid/internal/logger"
	"github.com/yourorg/habitgrid/internal/models"
	"github.com/yourorg/habitgrid/internal/store"
	"github.com/yourorg/habitgrid/internal/tracker"
	"github.com/yourorg/habitgrid/internal/validation"
)

// Deps are the collaborators shared by every handler.
type Deps struct {
	Config   *config.Config
	Store    *store.Store
	Tracker  *tracker.Service
	Sessions *session.Store
	Tokens   *auth.TokenIssuer
	Hub      *live.Hub
	Stats    *cache.Cache[[]models.HabitStats]
}

// Handler serves the HTML pages, the JSON API and the live share socket.
type Handler struct {
	cfg       *config.Config
	store     *store.Store
	tracker   *tracker.Service
	sessions  *session.Store
	tokens    *auth.TokenIssuer
	hub       *live.Hub
	stats     *cache.Cache[[]models.HabitStats]
	startTime time.Time
}

func New(d Deps) *Handler {
	return &Handler{
		cfg:       d.Config,
		store:     d.Store,
		tracker:   d.Tracker,
		sessions:  d.Sessions,
		tokens:    d.Tokens,
		hub:       d.Hub,
		stats:     d.Stats,
		startTime: time.Now(),
	}
}

// Sessions exposes the session store for the auth middleware.
func (h *Handler) Sessions() *session.Store {
	return h.sessions
}

// ErrorHandler renders errors as plain text for pages and as JSON for /api routes.
// Unexpected errors are logged and reported as a bare 500.
func (h *Handler) ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Internal Server Error"

	var fe *fiber.Error
	var ve *validation.FieldError
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		msg = fe.Message
	case errors.As(err, &ve):
		code = fiber.StatusBadRequest
		msg = ve.Error()
	}

	if code >= fiber.StatusInternalServerError {
		logger.Error("request failed", "method", c.Method(), "path", c.Path(), "status", code, "err", err)
	}

	if strings.HasPrefix(c.Path(), "/api/") {
		return c.Status(code).JSON(models.ErrorResponse{Error: msg})
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
	return c.Status(code).SendString(msg)
}

func badRequest(err error) error {
	return fiber.NewError(fiber.StatusBadRequest, err.Error())
}
