package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/yourorg/habitgrid/internal/logger"
	"github.com/yourorg/habitgrid/internal/models"
	"github.com/yourorg/habitgrid/internal/store"
)

const (
	// SessionUserKey is the session field holding the logged-in user id.
	SessionUserKey = "user_id"

	userLocalsKey = "user"
)

// NewSessionStore returns the in-memory session store behind the login cookie.
func NewSessionStore(ttl time.Duration, secure bool) *session.Store {
	return session.New(session.Config{
		Expiration:     ttl,
		KeyLookup:      "cookie:habitgrid_session",
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: "Lax",
	})
}

// UserLoader resolves a user id carried by a session or token.
type UserLoader interface {
	UserByID(ctx context.Context, id int64) (models.User, error)
}

// RequireLogin loads the session user into the request, redirecting to /login
// when there is none.
func RequireLogin(sessions *session.Store, users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := sessions.Get(c)
		if err != nil {
			return err
		}

		id, ok := sess.Get(SessionUserKey).(int64)
		if !ok {
			return c.Redirect("/login")
		}

		user, err := users.UserByID(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				logger.Warn("session references missing user", "user_id", id)
				_ = sess.Destroy()
				return c.Redirect("/login")
			}
			return err
		}

		c.Locals(userLocalsKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user stored by RequireLogin or RequireToken.
func CurrentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals(userLocalsKey).(models.User)
	return user, ok
}

// SetCurrentUser is used by alternate authenticators and tests.
func SetCurrentUser(c *fiber.Ctx, user models.User) {
	c.Locals(userLocalsKey, user)
}
