package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/habitgrid/internal/auth"
	"github.com/yourorg/habitgrid/internal/logger"
	"github.com/yourorg/habitgrid/internal/middleware"
	"github.com/yourorg/habitgrid/internal/models"
	"github.com/yourorg/habitgrid/internal/store"
	"github.com/yourorg/habitgrid/internal/validation"
)

const (
	msgUsernameTaken      = "Username already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgMissingCredentials = "Username and password are required"
)

// RegisterPage handles GET /register.
func (h *Handler) RegisterPage(c *fiber.Ctx) error {
	return c.Render("register", fiber.Map{"Title": "Register"})
}

// Register handles POST /register. It never logs the new user in.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgMissingCredentials)
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := validation.Credentials(req.Username, req.Password); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgMissingCredentials)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("failed to hash password", "err", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Registration failed")
	}

	id, err := h.store.CreateUser(c.UserContext(), req.Username, hash)
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			return fiber.NewError(fiber.StatusConflict, msgUsernameTaken)
		}
		logger.Error("failed to create user", "username", req.Username, "err", err)
		return fiber.NewError(fiber.StatusInternalServerError, "Registration failed")
	}

	logger.Info("user registered", "user_id", id, "username", req.Username)
	return c.Redirect("/login")
}

// LoginPage handles GET /login.
func (h *Handler) LoginPage(c *fiber.Ctx) error {
	return c.Render("login", fiber.Map{"Title": "Log in"})
}

// Login handles POST /login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, msgMissingCredentials)
	}

	user, err := h.authenticate(c, req)
	if err != nil {
		return err
	}

	sess, err := h.sessions.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Regenerate(); err != nil {
		return err
	}
	sess.Set(middleware.SessionUserKey, user.ID)
	if err := sess.Save(); err != nil {
		return err
	}

	logger.Info("user logged in", "user_id", user.ID)
	return c.Redirect("/")
}

// Logout handles GET /logout.
func (h *Handler) Logout(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		return err
	}
	if err := sess.Destroy(); err != nil {
		return err
	}
	return c.Redirect("/login")
}

// APILogin handles POST /api/login and returns a bearer token.
func (h *Handler) APILogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid json")
	}

	user, err := h.authenticate(c, req)
	if err != nil {
		return err
	}

	token, expiresAt, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.JSON(models.LoginResponse{
		Token:     token,
		User:      user.DTO(),
		ExpiresAt: expiresAt,
	})
}

// authenticate checks the credentials. Unknown users and wrong passwords get the
// same 401 and the same bcrypt cost.
func (h *Handler) authenticate(c *fiber.Ctx, req models.LoginRequest) (models.User, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return models.User{}, fiber.NewError(fiber.StatusBadRequest, msgMissingCredentials)
	}

	user, err := h.store.UserByUsername(c.UserContext(), username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			auth.BurnCompare(req.Password)
			return models.User{}, fiber.NewError(fiber.StatusUnauthorized, msgInvalidCredentials)
		}
		return models.User{}, err
	}

	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		logger.Warn("failed login", "username", username, "ip", c.IP())
		return models.User{}, fiber.NewError(fiber.StatusUnauthorized, msgInvalidCredentials)
	}
	return user, nil
}
