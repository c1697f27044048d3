package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yourorg/habitgrid/internal/models"
)

// CreateShareLink issues a new random token for the user's public calendar.
func (s *Store) CreateShareLink(ctx context.Context, userID int64) (models.ShareLink, error) {
	link := models.ShareLink{
		Token:     uuid.New().String(),
		UserID:    userID,
		CreatedAt: time.Unix(time.Now().Unix(), 0),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO share_links (token, user_id, created_at) VALUES (?, ?, ?)`,
		link.Token, link.UserID, link.CreatedAt.Unix())
	if err != nil {
		return models.ShareLink{}, fmt.Errorf("create share link: %w", err)
	}
	return link, nil
}

// ActiveShareLink returns the newest non-revoked link of the user.
func (s *Store) ActiveShareLink(ctx context.Context, userID int64) (models.ShareLink, error) {
	return scanShareLink(s.db.QueryRowContext(ctx, `
		SELECT token, user_id, created_at, revoked_at
		FROM share_links
		WHERE user_id = ? AND revoked_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1`, userID))
}

// ShareLinkByToken resolves a token. Revoked links are reported as ErrNotFound.
func (s *Store) ShareLinkByToken(ctx context.Context, token string) (models.ShareLink, error) {
	return scanShareLink(s.db.QueryRowContext(ctx, `
		SELECT token, user_id, created_at, revoked_at
		FROM share_links
		WHERE token = ? AND revoked_at IS NULL`, token))
}

// RevokeShareLinks revokes every active link of the user and returns how many were revoked.
func (s *Store) RevokeShareLinks(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE share_links SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`,
		time.Now().Unix(), userID)
	if err != nil {
		return 0, fmt.Errorf("revoke share links: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func scanShareLink(row *sql.Row) (models.ShareLink, error) {
	var (
		link    models.ShareLink
		created int64
		revoked sql.NullInt64
	)
	if err := row.Scan(&link.Token, &link.UserID, &created, &revoked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ShareLink{}, ErrNotFound
		}
		return models.ShareLink{}, fmt.Errorf("scan share link: %w", err)
	}
	link.CreatedAt = time.Unix(created, 0)
	if revoked.Valid {
		t := time.Unix(revoked.Int64, 0)
		link.RevokedAt = &t
	}
	return link, nil
}
