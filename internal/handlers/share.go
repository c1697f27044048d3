package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/yourorg/habitgrid/internal/logger"
	"github.com/yourorg/habitgrid/internal/store"
)

const shareUserLocalsKey = "share_user_id"

// shareRecheckInterval bounds how long an idle viewer outlives a revocation made
// by another process, such as the CLI.
const shareRecheckInterval = time.Minute

func (h *Handler) resolveShare(c *fiber.Ctx) (int64, error) {
	userID, err := h.tracker.ResolveShare(c.UserContext(), c.Params("token"), h.cfg.LegacyShareIDs)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, fiber.NewError(fiber.StatusNotFound, "Share link not found")
		}
		return 0, err
	}
	return userID, nil
}

// Share handles GET /share/:token, the public read-only grid.
func (h *Handler) Share(c *fiber.Ctx) error {
	userID, err := h.resolveShare(c)
	if err != nil {
		return err
	}

	year, month, err := h.monthParams(c)
	if err != nil {
		return err
	}

	grid, err := h.tracker.MonthGrid(c.UserContext(), userID, year, month)
	if err != nil {
		return err
	}

	token := c.Params("token")
	return c.Render("share", fiber.Map{
		"Title":      "Shared calendar",
		"Grid":       grid,
		"ReadOnly":   true,
		"ShareToken": token,
		"BasePath":   "/share/" + token,
	})
}

// ShareUpgrade validates the token before GET /ws/share/:token is upgraded.
func (h *Handler) ShareUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	userID, err := h.resolveShare(c)
	if err != nil {
		return err
	}
	c.Locals(shareUserLocalsKey, userID)
	return c.Next()
}

// shareStillValid reports whether segment still maps to userID.
func (h *Handler) shareStillValid(segment string, userID int64) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := h.tracker.ResolveShare(ctx, segment, h.cfg.LegacyShareIDs)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		logger.Warn("live share recheck failed", "user_id", userID, "err", err)
	}
	return err == nil && id == userID
}

// ShareSocket streams entry events of the shared calendar to the viewer until the
// link is revoked or either side closes.
func (h *Handler) ShareSocket() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		userID, ok := conn.Locals(shareUserLocalsKey).(int64)
		if !ok {
			return
		}
		segment := conn.Params("token")

		sub := h.hub.Subscribe(userID)
		if sub == nil {
			return
		}
		defer h.hub.Unsubscribe(sub)

		// viewers never send anything; reading only detects the close
		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		ticker := time.NewTicker(shareRecheckInterval)
		defer ticker.Stop()

		for {
			select {
			case msg, ok := <-sub.Messages():
				if !ok {
					return
				}
				if !h.shareStillValid(segment, userID) {
					logger.Debug("closing revoked live share", "user_id", userID)
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					logger.Debug("live share write failed", "user_id", userID, "err", err)
					return
				}
			case <-ticker.C:
				if !h.shareStillValid(segment, userID) {
					logger.Debug("closing revoked live share", "user_id", userID)
					return
				}
			case <-closed:
				return
			}
		}
	})
}
