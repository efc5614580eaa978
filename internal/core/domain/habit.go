package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/calendar"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/recurrence"
)

var (
	ErrHabitTitleEmpty    = errors.New("habit title cannot be empty")
	ErrHabitTitleTooLong  = errors.New("habit title is too long (max 200 chars)")
	ErrHabitInvalidUserID = errors.New("invalid user id")
)

const MaxTitleLen = 200

// Habit is the stored habit row. Frequency and OccurrenceDays keep the raw
// column values; Rule turns them into a recurrence.Rule.
type Habit struct {
	ID             string    `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	Title          string    `json:"title" db:"title"`
	Description    string    `json:"description,omitempty" db:"description"`
	Frequency      string    `json:"frequency" db:"frequency"`
	FrequencyCount int       `json:"frequency_count" db:"frequency_count"`
	OccurrenceDays *string   `json:"occurrence_days,omitempty" db:"occurrence_days"`
	StartDate      time.Time `json:"start_date" db:"start_date"`
	IsActive       bool      `json:"is_active" db:"is_active"`

	CurrentStreak int `json:"current_streak" db:"current_streak"`
	LongestStreak int `json:"longest_streak" db:"longest_streak"`

	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HabitSchedule is a validated frequency ready to be stored on a habit.
type HabitSchedule struct {
	Kind      recurrence.Kind
	Count     int
	Weekdays  []time.Weekday
	MonthDays []int
}

// NewHabitSchedule parses and validates a frequency as submitted at habit
// creation. Weekly days are weekday names, monthly days are numbers 1-31.
func NewHabitSchedule(frequency string, count int, days []string) (HabitSchedule, error) {
	kind, err := recurrence.ParseKind(frequency)
	if err != nil {
		return HabitSchedule{}, err
	}

	s := HabitSchedule{Kind: kind, Count: count}
	for _, d := range days {
		switch kind {
		case recurrence.KindMonthly:
			var n int
			if _, err := fmt.Sscanf(strings.TrimSpace(d), "%d", &n); err != nil {
				return HabitSchedule{}, &recurrence.RuleError{Kind: kind, Reason: fmt.Sprintf("day of month %q is not a number", d)}
			}
			s.MonthDays = append(s.MonthDays, n)
		default:
			wd, err := recurrence.ParseWeekday(d)
			if err != nil {
				return HabitSchedule{}, &recurrence.RuleError{Kind: kind, Reason: err.Error()}
			}
			s.Weekdays = append(s.Weekdays, wd)
		}
	}

	if err := recurrence.Validate(kind, count, s.Weekdays, s.MonthDays); err != nil {
		return HabitSchedule{}, err
	}
	return s, nil
}

// encode renders the occurrence days the way the occurrence_days column
// stores them: a JSON array of weekday names or of month-day numbers.
func (s HabitSchedule) encode() *string {
	var raw []byte
	switch {
	case len(s.Weekdays) > 0:
		names := make([]string, len(s.Weekdays))
		for i, d := range s.Weekdays {
			names[i] = d.String()
		}
		raw, _ = json.Marshal(names)
	case len(s.MonthDays) > 0:
		raw, _ = json.Marshal(s.MonthDays)
	default:
		return nil
	}
	out := string(raw)
	return &out
}

func NewHabit(userID, title string, schedule HabitSchedule, start time.Time) (*Habit, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrHabitInvalidUserID
	}

	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return nil, ErrHabitTitleEmpty
	}
	if len(trimmed) > MaxTitleLen {
		return nil, ErrHabitTitleTooLong
	}

	count := schedule.Count
	if count < 1 {
		count = 1
	}

	now := time.Now().UTC()
	return &Habit{
		ID:             uuid.NewString(),
		UserID:         userID,
		Title:          trimmed,
		Frequency:      string(schedule.Kind),
		FrequencyCount: count,
		OccurrenceDays: schedule.encode(),
		StartDate:      calendar.Day(start),
		IsActive:       true,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Rule builds the habit's recurrence rule from its stored columns. Stored
// habits are read permissively: an unknown frequency falls back to daily and
// unparseable occurrence days are ignored.
func (h *Habit) Rule() recurrence.Rule {
	kind, err := recurrence.ParseKind(h.Frequency)
	if err != nil {
		kind = recurrence.KindDaily
	}

	start := h.StartDate
	if start.IsZero() {
		start = h.CreatedAt
	}

	weekdays, monthDays := DecodeOccurrenceDays(h.OccurrenceDays)
	switch kind {
	case recurrence.KindWeekly:
		return recurrence.NewWeekly(start, h.FrequencyCount, weekdays...)
	case recurrence.KindMonthly:
		return recurrence.NewMonthly(start, h.FrequencyCount, monthDays...)
	case recurrence.KindCustom:
		return recurrence.NewCustom(start, h.FrequencyCount)
	default:
		return recurrence.NewDaily(start)
	}
}

// DecodeOccurrenceDays reads the occurrence_days JSON text. String entries
// are weekday names, numeric entries are days of month. Entries of neither
// shape are skipped.
func DecodeOccurrenceDays(raw *string) ([]time.Weekday, []int) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(*raw), &items); err != nil {
		return nil, nil
	}

	var (
		weekdays  []time.Weekday
		monthDays []int
	)
	for _, item := range items {
		var name string
		if err := json.Unmarshal(item, &name); err == nil {
			if wd, err := recurrence.ParseWeekday(name); err == nil {
				weekdays = append(weekdays, wd)
			}
			continue
		}
		var n float64
		if err := json.Unmarshal(item, &n); err == nil && n == float64(int(n)) {
			monthDays = append(monthDays, int(n))
		}
	}
	return weekdays, monthDays
}

// ApplyStreak stores a recomputed streak. Longest never regresses.
func (h *Habit) ApplyStreak(current, longest int) {
	h.CurrentStreak = current
	h.LongestStreak = max(h.LongestStreak, longest)
	h.UpdatedAt = time.Now().UTC()
}
