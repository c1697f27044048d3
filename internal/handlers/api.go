package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/habitgrid/internal/middleware"
	"github.com/yourorg/habitgrid/internal/models"
)

// APIHabits handles GET /api/habits.
func (h *Handler) APIHabits(c *fiber.Ctx) error {
	habits, err := h.tracker.Habits(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"habits": habits})
}

// APIAddHabit handles POST /api/habits.
func (h *Handler) APIAddHabit(c *fiber.Ctx) error {
	var req models.AddHabitRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	added, err := h.tracker.AddHabit(c.UserContext(), req.Habit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"added": added})
}

// APIMonth handles GET /api/month?month=&year=.
func (h *Handler) APIMonth(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)
	year, month, err := h.monthParams(c)
	if err != nil {
		return err
	}
	grid, err := h.tracker.MonthGrid(c.UserContext(), user.ID, year, month)
	if err != nil {
		return err
	}
	return c.JSON(grid)
}

// APIUpdateEntry handles PUT /api/entries.
func (h *Handler) APIUpdateEntry(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)

	var req models.EntryUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}
	if req.Date == "" || req.Habit == "" {
		return fiber.NewError(fiber.StatusBadRequest, "date and habit are required")
	}

	if err := h.tracker.Toggle(c.UserContext(), user.ID, req.Date, req.Habit, req.Value); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// APIStats handles GET /api/stats.
func (h *Handler) APIStats(c *fiber.Ctx) error {
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
	return c.JSON(fiber.Map{
		"stats":     stats,
		"share_url": h.shareURL(c, token),
	})
}
