package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/HabitOperatingSystem-OS/HabitOS/internal/core/domain"
)

var _ domain.GoalRepository = (*PostgresGoalRepository)(nil)

const goalColumns = `id, user_id, habit_id, title, goal_type, target_value, current_value, status, priority,
	start_date, due_date, completed_date, created_at, updated_at`

type PostgresGoalRepository struct {
	db *sqlx.DB
}

func NewPostgresGoalRepository(db *sqlx.DB) *PostgresGoalRepository {
	return &PostgresGoalRepository{db: db}
}

func (r *PostgresGoalRepository) Create(ctx context.Context, g *domain.Goal) error {
	query := `
		INSERT INTO goals (
			id, user_id, habit_id, title, goal_type, target_value, current_value, status, priority,
			start_date, due_date, completed_date, created_at, updated_at
		) VALUES (
			:id, :user_id, :habit_id, :title, :goal_type, :target_value, :current_value, :status, :priority,
			:start_date, :due_date, :completed_date, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, g); err != nil {
		if sqlState(err) == codeForeignKeyViolation {
			return domain.ErrHabitNotFound
		}
		return fmt.Errorf("failed to insert goal: %w", err)
	}
	return nil
}

func (r *PostgresGoalRepository) GetByID(ctx context.Context, id string) (*domain.Goal, error) {
	var g domain.Goal
	if err := r.db.GetContext(ctx, &g, `SELECT `+goalColumns+` FROM goals WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrGoalNotFound
		}
		return nil, fmt.Errorf("database scan error: %w", err)
	}
	return &g, nil
}

func (r *PostgresGoalRepository) ListByHabitID(ctx context.Context, habitID string) ([]*domain.Goal, error) {
	goals := []*domain.Goal{}
	query := `SELECT ` + goalColumns + ` FROM goals WHERE habit_id = $1 ORDER BY created_at ASC, id ASC`

	if err := r.db.SelectContext(ctx, &goals, query, habitID); err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	return goals, nil
}

func (r *PostgresGoalRepository) UpdateProgress(ctx context.Context, g *domain.Goal) error {
	query := `
		UPDATE goals
		SET current_value = :current_value,
		    status = :status,
		    completed_date = :completed_date,
		    updated_at = :updated_at
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, g)
	if err != nil {
		return fmt.Errorf("failed to update goal progress: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrGoalNotFound
	}
	return nil
}
