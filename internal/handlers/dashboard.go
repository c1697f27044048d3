package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/habitgrid/internal/middleware"
)

// Dashboard handles GET /dashboard.
func (h *Handler) Dashboard(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	ctx := c.UserContext()

	stats, err := h.tracker.Dashboard(ctx, user.ID)
	if err != nil {
		return err
	}
	token, err := h.tracker.ShareToken(ctx, user.ID)
	if err != nil {
		return err
	}

	return c.Render("dashboard", fiber.Map{
		"Title":    "Dashboard",
		"User":     user,
		"Stats":    stats,
		"ShareURL": h.shareURL(c, token),
	})
}

// RotateShare handles POST /share/rotate.
func (h *Handler) RotateShare(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	if _, err := h.tracker.RotateShareToken(c.UserContext(), user.ID); err != nil {
		return err
	}
	return c.Redirect("/dashboard")
}

func (h *Handler) shareURL(c *fiber.Ctx, token string) string {
	base := h.cfg.PublicURL
	if base == "" {
		base = c.BaseURL()
	}
	return base + "/share/" + token
}
