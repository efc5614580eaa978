package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/streak"
)

var _ domain.HabitRepository = (*PostgresHabitRepository)(nil)

const habitColumns = `id, user_id, title, description, frequency, frequency_count, occurrence_days,
	start_date, is_active, current_streak, longest_streak, version, created_at, updated_at`

type PostgresHabitRepository struct {
	db *sqlx.DB
}

func NewPostgresHabitRepository(db *sqlx.DB) *PostgresHabitRepository {
	return &PostgresHabitRepository{db: db}
}

func (r *PostgresHabitRepository) Create(ctx context.Context, h *domain.Habit) error {
	query := `
        INSERT INTO habits (
            id, user_id, title, description, frequency, frequency_count, occurrence_days,
            start_date, is_active, current_streak, longest_streak, version, created_at, updated_at
        ) VALUES (
            :id, :user_id, :title, :description, :frequency, :frequency_count, :occurrence_days,
            :start_date, :is_active, :current_streak, :longest_streak, 1, :created_at, :updated_at
        )`

	if _, err := r.db.NamedExecContext(ctx, query, h); err != nil {
		if sqlState(err) == codeUniqueViolation {
			return domain.ErrHabitConflict
		}
		return fmt.Errorf("failed to insert habit: %w", err)
	}

	h.Version = 1
	return nil
}

func (r *PostgresHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	var h domain.Habit
	query := `SELECT ` + habitColumns + ` FROM habits WHERE id = $1`

	if err := r.db.GetContext(ctx, &h, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrHabitNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return &h, nil
}

func (r *PostgresHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	habits := []*domain.Habit{}
	query := `
        SELECT ` + habitColumns + ` FROM habits
        WHERE user_id = $1
        ORDER BY created_at ASC, id ASC`

	if err := r.db.SelectContext(ctx, &habits, query, userID); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return habits, nil
}

func (r *PostgresHabitRepository) ListActiveIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM habits WHERE is_active ORDER BY id`); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return ids, nil
}

// UpdateStreak locks the habit row with SELECT ... FOR UPDATE, runs compute
// with the stored longest streak and writes the result in the same
// transaction. A panic in compute rolls the transaction back.
func (r *PostgresHabitRepository) UpdateStreak(ctx context.Context, id string, compute domain.StreakFunc) (streak.Result, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return streak.Result{}, fmt.Errorf("failed to begin streak transaction: %w", err)
	}
	defer tx.Rollback()

	var longest int
	err = tx.GetContext(ctx, &longest, `SELECT longest_streak FROM habits WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return streak.Result{}, domain.ErrHabitNotFound
		}
		return streak.Result{}, r.txError("lock habit row", err)
	}

	res := compute(longest)

	query := `
        UPDATE habits
        SET current_streak = $1,
            longest_streak = GREATEST(longest_streak, $2),
            version = version + 1,
            updated_at = NOW()
        WHERE id = $3`

	if _, err := tx.ExecContext(ctx, query, res.Current, res.Longest, id); err != nil {
		return streak.Result{}, r.txError("update streak", err)
	}
	if err := tx.Commit(); err != nil {
		return streak.Result{}, r.txError("commit streak", err)
	}

	res.Longest = max(res.Longest, longest)
	return res, nil
}

func (r *PostgresHabitRepository) txError(op string, err error) error {
	if isRetryable(err) {
		return fmt.Errorf("%s: %w", op, domain.ErrHabitConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
