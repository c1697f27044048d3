// Package tracker implements the habit grid, toggling, catalog and streak logic
// on top of the store.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/yourorg/habitgrid/internal/cache"
	"github.com/yourorg/habitgrid/internal/calendar"
	"github.com/yourorg/habitgrid/internal/logger"
	"github.com/yourorg/habitgrid/internal/models"
	"github.com/yourorg/habitgrid/internal/store"
	"github.com/yourorg/habitgrid/internal/validation"
)

const statsKeyPrefix = "stats:"

// Publisher receives entry changes for live share viewers and drops those
// viewers once the user's share links are revoked.
type Publisher interface {
	Publish(userID int64, event models.EntryEvent)
	Disconnect(userID int64) int
}

// Options configures a Service.
type Options struct {
	Location      *time.Location
	MaxStreakDays int
	Stats         *cache.Cache[[]models.HabitStats]
	Publisher     Publisher
	Now           func() time.Time
}

type Service struct {
	store         *store.Store
	stats         *cache.Cache[[]models.HabitStats]
	publisher     Publisher
	loc           *time.Location
	maxStreakDays int
	now           func() time.Time
}

func New(st *store.Store, opts Options) *Service {
	s := &Service{
		store:         st,
		stats:         opts.Stats,
		publisher:     opts.Publisher,
		loc:           opts.Location,
		maxStreakDays: opts.MaxStreakDays,
		now:           opts.Now,
	}
	if s.loc == nil {
		s.loc = time.Local
	}
	if s.maxStreakDays < 1 {
		s.maxStreakDays = 3650
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Today returns the current calendar day in the configured timezone.
func (s *Service) Today() time.Time {
	return calendar.Today(s.now(), s.loc)
}

// Habits returns the global catalog in insertion order.
func (s *Service) Habits(ctx context.Context) ([]string, error) {
	return s.store.ListHabits(ctx)
}

// MonthGrid builds the month view of userID's entries.
func (s *Service) MonthGrid(ctx context.Context, userID int64, year int, month time.Month) (models.MonthGrid, error) {
	habits, err := s.store.ListHabits(ctx)
	if err != nil {
		return models.MonthGrid{}, err
	}

	dates := calendar.MonthDates(year, month)
	entries, err := s.store.EntriesBetween(ctx, userID, dates[0], dates[len(dates)-1])
	if err != nil {
		return models.MonthGrid{}, err
	}

	byDate := make(map[string]map[string]int)
	for _, e := range entries {
		if byDate[e.Date] == nil {
			byDate[e.Date] = make(map[string]int)
		}
		byDate[e.Date][e.Habit] = e.Value
	}

	today := calendar.Format(s.Today())
	days := make([]models.DayRow, 0, len(dates))
	for i, d := range dates {
		day := time.Date(year, month, i+1, 0, 0, 0, 0, time.UTC)
		row := models.DayRow{
			Date:    d,
			Day:     i + 1,
			Weekday: day.Weekday().String()[:3],
			IsToday: d == today,
			Cells:   make([]models.Cell, 0, len(habits)),
		}
		for _, h := range habits {
			v, ok := byDate[d][h]
			row.Cells = append(row.Cells, models.Cell{Habit: h, Value: v, Set: ok})
		}
		days = append(days, row)
	}

	prevYear, prevMonth := calendar.Shift(year, month, -1)
	nextYear, nextMonth := calendar.Shift(year, month, 1)

	return models.MonthGrid{
		Year:      year,
		Month:     int(month),
		MonthName: month.String(),
		Habits:    habits,
		Days:      days,
		Entries:   byDate,
		PrevYear:  prevYear,
		PrevMonth: int(prevMonth),
		NextYear:  nextYear,
		NextMonth: int(nextMonth),
	}, nil
}

// Toggle records whether habit was done on date. The previous value, if any, is replaced.
func (s *Service) Toggle(ctx context.Context, userID int64, date, habit string, done bool) error {
	value := 0
	if done {
		value = 1
	}
	if err := s.store.UpsertEntry(ctx, models.Entry{UserID: userID, Date: date, Habit: habit, Value: value}); err != nil {
		return err
	}

	if s.stats != nil {
		s.stats.DeletePrefix(userStatsPrefix(userID))
	}
	if s.publisher != nil {
		s.publisher.Publish(userID, models.EntryEvent{Type: "entry", Date: date, Habit: habit, Value: value})
	}
	return nil
}

// AddHabit trims raw and adds it to the catalog. Blank names and existing
// habits are no-ops and report added=false.
func (s *Service) AddHabit(ctx context.Context, raw string) (bool, error) {
	name, err := validation.HabitName(raw)
	if err != nil {
		return false, err
	}
	if name == "" {
		return false, nil
	}

	added, err := s.store.AddHabit(ctx, name)
	if err != nil {
		return false, err
	}
	if added {
		dropped := 0
		if s.stats != nil {
			// every dashboard lists the whole catalog
			dropped = s.stats.Clear()
		}
		logger.Info("habit added", "habit", name, "dropped_stats", dropped)
	}
	return added, nil
}

// Streak counts consecutive completed days of habit ending today. If today is
// not marked done the streak is 0. Streaks longer than the configured cap
// report the cap.
func (s *Service) Streak(ctx context.Context, userID int64, habit string) (int, error) {
	today := s.Today()
	from := calendar.WindowStart(today, s.maxStreakDays)

	dates, err := s.store.PositiveDates(ctx, userID, habit, calendar.Format(from), calendar.Format(today))
	if err != nil {
		return 0, fmt.Errorf("streak for %q: %w", habit, err)
	}
	return calendar.CountStreak(today, dates), nil
}

// Dashboard returns completed counts and current streaks for every catalog habit.
// Cached results are keyed by day so streaks are recomputed once the date changes.
func (s *Service) Dashboard(ctx context.Context, userID int64) ([]models.HabitStats, error) {
	key := statsKey(userID, s.Today())
	if s.stats != nil {
		if stats, ok := s.stats.Get(key); ok {
			return stats, nil
		}
	}

	habits, err := s.store.ListHabits(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.store.CompletedCounts(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := make([]models.HabitStats, 0, len(habits))
	for _, h := range habits {
		streak, err := s.Streak(ctx, userID, h)
		if err != nil {
			return nil, err
		}
		stats = append(stats, models.HabitStats{Habit: h, Completed: counts[h], Streak: streak})
	}

	if s.stats != nil {
		s.stats.Set(key, stats)
	}
	return stats, nil
}

// ShareToken returns the user's active share token, creating one on first use.
func (s *Service) ShareToken(ctx context.Context, userID int64) (string, error) {
	link, err := s.store.ActiveShareLink(ctx, userID)
	if err == nil {
		return link.Token, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}
	link, err = s.store.CreateShareLink(ctx, userID)
	if err != nil {
		return "", err
	}
	return link.Token, nil
}

// RevokeShareTokens revokes every active token of the user and closes the live
// viewers that connected with them.
func (s *Service) RevokeShareTokens(ctx context.Context, userID int64) (int64, error) {
	revoked, err := s.store.RevokeShareLinks(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.publisher != nil {
		s.publisher.Disconnect(userID)
	}
	return revoked, nil
}

// RotateShareToken revokes every active token of the user and issues a new one.
func (s *Service) RotateShareToken(ctx context.Context, userID int64) (string, error) {
	revoked, err := s.RevokeShareTokens(ctx, userID)
	if err != nil {
		return "", err
	}
	link, err := s.store.CreateShareLink(ctx, userID)
	if err != nil {
		return "", err
	}
	logger.Info("share link rotated", "user_id", userID, "revoked", revoked)
	return link.Token, nil
}

// ResolveShare maps a share path segment to a user id. Numeric segments are
// treated as raw user ids only when legacy is set.
func (s *Service) ResolveShare(ctx context.Context, segment string, legacy bool) (int64, error) {
	if legacy {
		if id, err := strconv.ParseInt(segment, 10, 64); err == nil {
			if _, err := s.store.UserByID(ctx, id); err != nil {
				return 0, err
			}
			return id, nil
		}
	}
	link, err := s.store.ShareLinkByToken(ctx, segment)
	if err != nil {
		return 0, err
	}
	return link.UserID, nil
}

func userStatsPrefix(userID int64) string {
	return statsKeyPrefix + strconv.FormatInt(userID, 10) + ":"
}

func statsKey(userID int64, day time.Time) string {
	return userStatsPrefix(userID) + calendar.Format(day)
}
