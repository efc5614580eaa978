package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/calendar"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
)

var _ domain.CheckInRepository = (*PostgresCheckInRepository)(nil)

const checkInColumns = `id, habit_id, user_id, check_in_date, completed, value, mood_rating, notes, created_at, updated_at`

type PostgresCheckInRepository struct {
	db *sqlx.DB
}

func NewPostgresCheckInRepository(db *sqlx.DB) *PostgresCheckInRepository {
	return &PostgresCheckInRepository{db: db}
}

func (r *PostgresCheckInRepository) Create(ctx context.Context, c *domain.CheckIn) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	query := `
		INSERT INTO check_ins (
			id, habit_id, user_id,
			check_in_date, completed, value, mood_rating, notes,
			created_at, updated_at
		) VALUES (
			:id, :habit_id, :user_id,
			:check_in_date, :completed, :value, :mood_rating, :notes,
			:created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, c); err != nil {
		switch sqlState(err) {
		case codeForeignKeyViolation:
			return domain.ErrHabitNotFound
		case codeUniqueViolation:
			return domain.ErrCheckInConflict
		}
		return fmt.Errorf("failed to insert check-in: %w", err)
	}
	return nil
}

func (r *PostgresCheckInRepository) ListByHabitID(ctx context.Context, habitID string, from, to time.Time) ([]*domain.CheckIn, error) {
	checkIns := []*domain.CheckIn{}

	var err error
	if from.IsZero() {
		query := `
			SELECT ` + checkInColumns + ` FROM check_ins
			WHERE habit_id = $1
			  AND check_in_date <= $2
			ORDER BY check_in_date DESC, created_at DESC`
		err = r.db.SelectContext(ctx, &checkIns, query, habitID, calendar.Day(to))
	} else {
		query := `
			SELECT ` + checkInColumns + ` FROM check_ins
			WHERE habit_id = $1
			  AND check_in_date >= $2
			  AND check_in_date <= $3
			ORDER BY check_in_date DESC, created_at DESC`
		err = r.db.SelectContext(ctx, &checkIns, query, habitID, calendar.Day(from), calendar.Day(to))
	}
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return checkIns, nil
}

func (r *PostgresCheckInRepository) ListByUserIDAndDateRange(ctx context.Context, userID string, from, to time.Time) ([]*domain.CheckIn, error) {
	checkIns := []*domain.CheckIn{}

	query := `
		SELECT ` + checkInColumns + ` FROM check_ins
		WHERE user_id = $1
		  AND check_in_date >= $2
		  AND check_in_date <= $3
		ORDER BY check_in_date ASC`

	if err := r.db.SelectContext(ctx, &checkIns, query, userID, calendar.Day(from), calendar.Day(to)); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return checkIns, nil
}
