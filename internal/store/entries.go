package store

import (
	"context"
	"fmt"

	"github.com/yourorg/habitgrid/internal/models"
)

// UpsertEntry writes the value for (user, date, habit), replacing any previous row.
func (s *Store) UpsertEntry(ctx context.Context, e models.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`REPLACE INTO habits (user_id, date, habit, value) VALUES (?, ?, ?, ?)`,
		e.UserID, e.Date, e.Habit, e.Value)
	if err != nil {
		return fmt.Errorf("upsert entry: %w", err)
	}
	return nil
}

// EntriesBetween returns the user's entries with from <= date <= to.
func (s *Store) EntriesBetween(ctx context.Context, userID int64, from, to string) ([]models.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, date, habit, value
		FROM habits
		WHERE user_id = ? AND date >= ? AND date <= ?
		ORDER BY date, habit`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		var e models.Entry
		if err := rows.Scan(&e.UserID, &e.Date, &e.Habit, &e.Value); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountEntries returns how many rows exist for the (user, date, habit) triple.
func (s *Store) CountEntries(ctx context.Context, userID int64, date, habit string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM habits WHERE user_id = ? AND date = ? AND habit = ?`,
		userID, date, habit).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// CompletedCounts returns, per habit, how many entries of the user have value 1.
func (s *Store) CompletedCounts(ctx context.Context, userID int64) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT habit, COUNT(*)
		FROM habits
		WHERE user_id = ? AND value = 1
		GROUP BY habit`, userID)
	if err != nil {
		return nil, fmt.Errorf("count completed: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			habit string
			n     int
		)
		if err := rows.Scan(&habit, &n); err != nil {
			return nil, fmt.Errorf("scan completed count: %w", err)
		}
		counts[habit] = n
	}
	return counts, rows.Err()
}

// PositiveDates returns the dates in [from, to] where the habit is marked done,
// newest first.
func (s *Store) PositiveDates(ctx context.Context, userID int64, habit, from, to string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date
		FROM habits
		WHERE user_id = ? AND habit = ? AND value = 1 AND date >= ? AND date <= ?
		ORDER BY date DESC`, userID, habit, from, to)
	if err != nil {
		return nil, fmt.Errorf("query positive dates: %w", err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan date: %w", err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
