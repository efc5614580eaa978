package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/calendar"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/checkin"
)

var (
	ErrInvalidCheckIn = errors.New("invalid check-in data")
	ErrInvalidMood    = errors.New("mood rating must be between 1 and 10")
)

// CheckIn is the stored check_ins row.
type CheckIn struct {
	ID      string `json:"id" db:"id"`
	HabitID string `json:"habit_id" db:"habit_id"`
	UserID  string `json:"user_id" db:"user_id"`

	CheckInDate time.Time `json:"check_in_date" db:"check_in_date"`
	Completed   bool      `json:"completed" db:"completed"`
	Value       *float64  `json:"value,omitempty" db:"value"`
	MoodRating  *int      `json:"mood_rating,omitempty" db:"mood_rating"`
	Notes       string    `json:"notes,omitempty" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func NewCheckIn(habitID, userID string, date time.Time, completed bool) *CheckIn {
	now := time.Now().UTC()
	return &CheckIn{
		ID:          uuid.NewString(),
		HabitID:     habitID,
		UserID:      userID,
		CheckInDate: calendar.Day(date),
		Completed:   completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (c *CheckIn) Validate() error {
	if strings.TrimSpace(c.HabitID) == "" {
		return errors.Join(ErrInvalidCheckIn, errors.New("habit_id is required"))
	}
	if strings.TrimSpace(c.UserID) == "" {
		return errors.Join(ErrInvalidCheckIn, errors.New("user_id is required"))
	}
	if c.CheckInDate.IsZero() {
		return errors.Join(ErrInvalidCheckIn, errors.New("check_in_date is required"))
	}
	if c.Value != nil && *c.Value < 0 {
		return errors.Join(ErrInvalidCheckIn, errors.New("value cannot be negative"))
	}
	if c.MoodRating != nil && (*c.MoodRating < 1 || *c.MoodRating > 10) {
		return ErrInvalidMood
	}
	return nil
}

// Event converts the row into the value the engine reads.
func (c *CheckIn) Event() checkin.Event {
	e := checkin.NewEvent(c.CheckInDate, c.Completed)
	if c.Value != nil {
		e = e.WithValue(*c.Value)
	}
	return e
}

// Events converts rows in order.
func Events(rows []*CheckIn) []checkin.Event {
	out := make([]checkin.Event, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		out = append(out, r.Event())
	}
	return out
}
