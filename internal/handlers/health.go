package handlers

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthResponse is the body of GET /api/health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Version   string            `json:"version,omitempty"`
}

// Health reports database reachability and the state of the habit catalog.
func (h *Handler) Health(c *fiber.Ctx) error {
	services := make(map[string]string)
	overall := "healthy"

	// ============================================================================
	// CHECK: database
	// ============================================================================
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := h.store.DB().PingContext(ctx); err != nil {
		services["database"] = "unhealthy: " + err.Error()
		overall = "degraded"
	} else {
		services["database"] = "healthy"
	}

	// ============================================================================
	// CHECK: habit catalog
	// ============================================================================
	if overall == "healthy" {
		habits, err := h.store.ListHabits(ctx)
		switch {
		case err != nil:
			services["habit_catalog"] = "unhealthy: " + err.Error()
			overall = "degraded"
		case len(habits) == 0:
			// a fresh install has no habits yet, which is not a failure
			services["habit_catalog"] = "empty"
		default:
			services["habit_catalog"] = "healthy"
		}
	} else {
		services["habit_catalog"] = "unavailable"
	}

	statusCode := fiber.StatusOK
	if overall == "degraded" {
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  services,
		Version:   os.Getenv("APP_VERSION"),
	})
}
