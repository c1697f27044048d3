package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/yourorg/habitgrid/internal/config"
	"github.com/yourorg/habitgrid/internal/handlers"
	"github.com/yourorg/habitgrid/internal/middleware"
	"github.com/yourorg/habitgrid/internal/views"
)

// Auth bundles what the authentication middleware needs to resolve users.
type Auth struct {
	Users  middleware.UserLoader
	Tokens middleware.TokenParser
}

// NewApp builds the Fiber app with views, error handling and every route.
func NewApp(cfg *config.Config, h *handlers.Handler, a Auth) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "habitgrid",
		Views:                 views.Engine(),
		ViewsLayout:           views.Layout,
		ErrorHandler:          h.ErrorHandler,
		DisableStartupMessage: cfg.IsProduction(),
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger())

	app.Use("/static", filesystem.New(filesystem.Config{
		Root:   views.Static(),
		MaxAge: 3600,
	}))

	Register(app, cfg, h, a)
	return app
}

// Register wires the HTML, share and API routes.
func Register(app *fiber.App, cfg *config.Config, h *handlers.Handler, a Auth) {
	authLimit := middleware.AuthRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
	requireLogin := middleware.RequireLogin(h.Sessions(), a.Users)

	// ============================================================================
	// ACCOUNT
	// ============================================================================
	app.Get("/register", h.RegisterPage)
	app.Post("/register", authLimit, h.Register)
	app.Get("/login", h.LoginPage)
	app.Post("/login", authLimit, h.Login)
	app.Get("/logout", requireLogin, h.Logout)

	// ============================================================================
	// TRACKER (session)
	// ============================================================================
	app.Get("/", requireLogin, h.Index)
	app.Post("/update", requireLogin, h.Update)
	app.Post("/add_habit", requireLogin, h.AddHabit)
	app.Get("/dashboard", requireLogin, h.Dashboard)
	app.Post("/share/rotate", requireLogin, h.RotateShare)

	// ============================================================================
	// PUBLIC SHARE
	// ============================================================================
	app.Get("/share/:token", h.Share)
	app.Get("/ws/share/:token", h.ShareUpgrade, h.ShareSocket())

	// ============================================================================
	// JSON API
	// ============================================================================
	api := app.Group("/api")
	api.Get("/health", h.Health)
	api.Get("/status", h.Status)
	api.Post("/login", authLimit, h.APILogin)

	apiLimit := middleware.APIRateLimiter()
	requireToken := middleware.RequireToken(a.Tokens, a.Users)
	api.Get("/habits", apiLimit, requireToken, h.APIHabits)
	api.Post("/habits", apiLimit, requireToken, h.APIAddHabit)
	api.Get("/month", apiLimit, requireToken, h.APIMonth)
	api.Put("/entries", apiLimit, requireToken, h.APIUpdateEntry)
	api.Get("/stats", apiLimit, requireToken, h.APIStats)
}
