package menu

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PlanRepository is a database-backed repository for meal plans. Rows are
// insert-only: regeneration creates a new row, nothing is updated in place.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// Save inserts a meal plan together with its context/targets snapshot and
// returns the database ID.
func (r *PlanRepository) Save(ctx context.Context, plan *MealPlan) (int64, error) {
	daysJSON, err := json.Marshal(plan.Days)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal plan days: %w", err)
	}
	snapshotJSON, err := json.Marshal(plan.Snapshot)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal plan snapshot: %w", err)
	}

	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO meal_plans (menu_id, user_id, title, total_days, start_date, end_date, generation_source, plan_data, snapshot_data, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.MenuID, plan.UserID, plan.Title, plan.TotalDays, plan.StartDate, plan.EndDate,
		string(plan.Source), string(daysJSON), string(snapshotJSON), plan.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert meal plan: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read meal plan id: %w", err)
	}
	plan.ID = id
	return id, nil
}

// GetByMenuID retrieves a plan by its public menu ID, or nil when not found.
func (r *PlanRepository) GetByMenuID(ctx context.Context, menuID string) (*MealPlan, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, menu_id, user_id, title, total_days, start_date, end_date, generation_source, plan_data, snapshot_data, created_at
		 FROM meal_plans WHERE menu_id = ?`, menuID)
	plan, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return plan, err
}

// ListRecentByUserID retrieves the N most recent meal plans for a user.
func (r *PlanRepository) ListRecentByUserID(ctx context.Context, userID string, limit int) ([]MealPlan, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, menu_id, user_id, title, total_days, start_date, end_date, generation_source, plan_data, snapshot_data, created_at
		 FROM meal_plans WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list meal plans for user %s: %w", userID, err)
	}
	defer rows.Close()

	var plans []MealPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	return plans, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*MealPlan, error) {
	var plan MealPlan
	var source, daysJSON, snapshotJSON string

	err := row.Scan(&plan.ID, &plan.MenuID, &plan.UserID, &plan.Title, &plan.TotalDays,
		&plan.StartDate, &plan.EndDate, &source, &daysJSON, &snapshotJSON, &plan.CreatedAt)
	if err != nil {
		return nil, err
	}

	plan.Source = GenerationSource(source)
	if err := json.Unmarshal([]byte(daysJSON), &plan.Days); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan days: %w", err)
	}
	if err := json.Unmarshal([]byte(snapshotJSON), &plan.Snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan snapshot: %w", err)
	}
	return &plan, nil
}
