package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/habitgrid/internal/middleware"
	"github.com/yourorg/habitgrid/internal/validation"
)

// monthParams reads the optional month and year query values, defaulting to today.
func (h *Handler) monthParams(c *fiber.Ctx) (int, time.Month, error) {
	today := h.tracker.Today()
	month, err := validation.ParseMonth(c.Query("month"), today.Month())
	if err != nil {
		return 0, 0, badRequest(err)
	}
	year, err := validation.ParseYear(c.Query("year"), today.Year())
	if err != nil {
		return 0, 0, badRequest(err)
	}
	return year, month, nil
}

// Index handles GET /, the editable month grid of the logged-in user.
func (h *Handler) Index(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)

	year, month, err := h.monthParams(c)
	if err != nil {
		return err
	}

	grid, err := h.tracker.MonthGrid(c.UserContext(), user.ID, year, month)
	if err != nil {
		return err
	}

	return c.Render("month", fiber.Map{
		"Title":    grid.MonthName,
		"User":     user,
		"Grid":     grid,
		"BasePath": "/",
	})
}

// Update handles POST /update. Any non-empty value marks the habit done.
func (h *Handler) Update(c *fiber.Ctx) error {
	user, _ := middleware.CurrentUser(c)

	date := c.FormValue("date")
	habit := c.FormValue("habit")
	if date == "" || habit == "" {
		return fiber.NewError(fiber.StatusBadRequest, "date and habit are required")
	}
	done := c.FormValue("value") != ""

	if err := h.tracker.Toggle(c.UserContext(), user.ID, date, habit, done); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddHabit handles POST /add_habit. Blank names are ignored.
func (h *Handler) AddHabit(c *fiber.Ctx) error {
	if _, err := h.tracker.AddHabit(c.UserContext(), c.FormValue("habit")); err != nil {
		return err
	}
	return c.Redirect("/")
}
