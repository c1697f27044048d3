package models

// Entry is a single (user, date, habit) completion record. Value is 0 or 1.
type Entry struct {
	UserID int64  `json:"user_id"`
	Date   string `json:"date"`
	Habit  string `json:"habit"`
	Value  int    `json:"value"`
}

// EntryUpdateRequest is the JSON body of PUT /api/entries.
type EntryUpdateRequest struct {
	Date  string `json:"date"`
	Habit string `json:"habit"`
	Value bool   `json:"value"`
}

// AddHabitRequest is the JSON body of POST /api/habits.
type AddHabitRequest struct {
	Habit string `json:"habit" form:"habit"`
}

// HabitStats is one dashboard row.
type HabitStats struct {
	Habit     string `json:"habit"`
	Completed int    `json:"completed"`
	Streak    int    `json:"streak"`
}

// Cell is one habit on one day of the grid. Set is false when no entry exists,
// which renders the same as Value 0 but lets callers tell the two apart.
type Cell struct {
	Habit string `json:"habit"`
	Value int    `json:"value"`
	Set   bool   `json:"set"`
}

// DayRow is one calendar day of the grid.
type DayRow struct {
	Date    string `json:"date"`
	Day     int    `json:"day"`
	Weekday string `json:"weekday"`
	IsToday bool   `json:"is_today"`
	Cells   []Cell `json:"cells"`
}

// MonthGrid is the month view shared by the index, share page and JSON API.
type MonthGrid struct {
	Year      int      `json:"year"`
	Month     int      `json:"month"`
	MonthName string   `json:"month_name"`
	Habits    []string `json:"habits"`
	Days      []DayRow `json:"days"`
	// Entries maps date -> habit -> value for dates with at least one entry.
	Entries map[string]map[string]int `json:"entries"`

	PrevYear  int `json:"prev_year"`
	PrevMonth int `json:"prev_month"`
	NextYear  int `json:"next_year"`
	NextMonth int `json:"next_month"`
}
