package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/calendar"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/progress"
)

var (
	ErrGoalTitleEmpty     = errors.New("goal title cannot be empty")
	ErrGoalInvalidTarget  = errors.New("goal target must be positive")
	ErrGoalDueBeforeStart = errors.New("goal due date is before its start date")
)

// Goal is the stored goals row. GoalType and Status keep whatever vocabulary
// the row was written with; Projection normalizes them.
type Goal struct {
	ID            string     `json:"id" db:"id"`
	UserID        string     `json:"user_id" db:"user_id"`
	HabitID       string     `json:"habit_id" db:"habit_id"`
	Title         string     `json:"title" db:"title"`
	GoalType      string     `json:"goal_type" db:"goal_type"`
	TargetValue   float64    `json:"target_value" db:"target_value"`
	CurrentValue  float64    `json:"current_value" db:"current_value"`
	Status        string     `json:"status" db:"status"`
	Priority      string     `json:"priority,omitempty" db:"priority"`
	StartDate     time.Time  `json:"start_date" db:"start_date"`
	DueDate       *time.Time `json:"due_date,omitempty" db:"due_date"`
	CompletedDate *time.Time `json:"completed_date,omitempty" db:"completed_date"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func NewGoal(userID, habitID, title string, goalType progress.GoalType, target float64, start time.Time, due *time.Time) (*Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrGoalTitleEmpty
	}
	if target <= 0 {
		return nil, ErrGoalInvalidTarget
	}

	start = calendar.Day(start)
	var dueDay *time.Time
	if due != nil {
		d := calendar.Day(*due)
		if d.Before(start) {
			return nil, ErrGoalDueBeforeStart
		}
		dueDay = &d
	}

	now := time.Now().UTC()
	return &Goal{
		ID:          uuid.NewString(),
		UserID:      userID,
		HabitID:     habitID,
		Title:       title,
		GoalType:    string(goalType),
		TargetValue: target,
		Status:      string(progress.StatusInProgress),
		Priority:    "medium",
		StartDate:   start,
		DueDate:     dueDay,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Projection normalizes the stored row into the projector's goal.
func (g *Goal) Projection() (progress.Goal, error) {
	goalType, err := progress.ParseGoalType(g.GoalType)
	if err != nil {
		return progress.Goal{}, err
	}
	status, err := progress.ParseGoalStatus(g.Status)
	if err != nil {
		return progress.Goal{}, err
	}

	return progress.Goal{
		ID:            g.ID,
		HabitID:       g.HabitID,
		Type:          goalType,
		Target:        g.TargetValue,
		StartDate:     g.StartDate,
		DueDate:       g.DueDate,
		Status:        status,
		CompletedDate: g.CompletedDate,
	}, nil
}

// Apply copies the derived fields of p onto the row. It reports whether any
// persisted field changed.
func (g *Goal) Apply(p progress.GoalProgress) bool {
	changed := g.CurrentValue != p.CurrentValue ||
		g.Status != string(p.Status) ||
		!sameDate(g.CompletedDate, p.CompletedDate)

	g.CurrentValue = p.CurrentValue
	g.Status = string(p.Status)
	g.CompletedDate = p.CompletedDate
	if changed {
		g.UpdatedAt = time.Now().UTC()
	}
	return changed
}

func sameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return calendar.SameDay(*a, *b)
}
