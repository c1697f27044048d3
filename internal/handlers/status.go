package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/habitgrid/internal/cache"
)

// SystemStatus is the body of GET /api/status.
type SystemStatus struct {
	Backend  BackendStatus  `json:"backend"`
	Database DatabaseStatus `json:"database"`
	Cache    cache.Stats    `json:"stats_cache"`
	Sharing  SharingStatus  `json:"sharing"`
}

// SharingStatus tells operators which share URLs resolve. Numeric user ids only
// work with LEGACY_SHARE_IDS=true.
type SharingStatus struct {
	Mode      string `json:"mode"`
	LegacyIDs bool   `json:"legacy_ids"`
}

type BackendStatus struct {
	Status       string `json:"status"`
	ResponseTime int    `json:"responseTime"`
	Uptime       int64  `json:"uptime"`
	Version      string `json:"version"`
}

type DatabaseStatus struct {
	Status         string `json:"status"`
	Dialect        string `json:"dialect"`
	Connections    int    `json:"connections"`
	MaxConnections int    `json:"maxConnections"`
	Users          int    `json:"users"`
}

// ShareMode names which path segments /share/ accepts.
func ShareMode(legacyIDs bool) string {
	if legacyIDs {
		return "token+user_id"
	}
	return "token"
}

// Status reports uptime, connection pool usage and stats cache occupancy.
func (h *Handler) Status(c *fiber.Ctx) error {
	startRequest := time.Now()

	status := SystemStatus{
		Backend: BackendStatus{
			Status:  "online",
			Uptime:  int64(time.Since(h.startTime).Seconds()),
			Version: "1.0.0",
		},
		Database: DatabaseStatus{
			Status:  "unknown",
			Dialect: string(h.store.Dialect()),
		},
	}

	db := h.store.DB()
	if err := db.PingContext(c.UserContext()); err == nil {
		status.Database.Status = "online"
		stats := db.Stats()
		status.Database.Connections = stats.InUse
		status.Database.MaxConnections = stats.MaxOpenConnections
		if n, err := h.store.CountUsers(c.UserContext()); err == nil {
			status.Database.Users = n
		}
	} else {
		status.Database.Status = "offline"
	}

	if h.stats != nil {
		status.Cache = h.stats.GetStats()
	}
	status.Sharing = SharingStatus{Mode: ShareMode(h.cfg.LegacyShareIDs), LegacyIDs: h.cfg.LegacyShareIDs}

	status.Backend.ResponseTime = int(time.Since(startRequest).Milliseconds())
	return c.JSON(status)
}
