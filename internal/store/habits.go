package store

import (
	"context"
	"fmt"
)

// ListHabits returns the global habit catalog in insertion order.
func (s *Store) ListHabits(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT habit FROM habit_list ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}
	defer rows.Close()

	habits := []string{}
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scan habit: %w", err)
		}
		habits = append(habits, h)
	}
	return habits, rows.Err()
}

// AddHabit inserts name into the catalog unless it already exists.
// added is false for duplicates, which are not an error.
func (s *Store) AddHabit(ctx context.Context, name string) (added bool, err error) {
	res, err := s.db.ExecContext(ctx, s.dialect.InsertIgnore()+` INTO habit_list (habit) VALUES (?)`, name)
	if err != nil {
		return false, fmt.Errorf("add habit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("add habit: %w", err)
	}
	return n > 0, nil
}
