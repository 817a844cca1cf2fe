package profile

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository is a database-backed store for questionnaires and baseline
// nutrition plans.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// SaveQuestionnaire inserts a questionnaire row. The full record is stored as
// JSON; the completion timestamp is duplicated in a column for ordering.
func (r *Repository) SaveQuestionnaire(ctx context.Context, q Questionnaire) error {
	if q.CompletedAt.IsZero() {
		q.CompletedAt = time.Now().UTC()
	}

	data, err := json.Marshal(q)
	if err != nil {
		return fmt.Errorf("failed to marshal questionnaire: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO questionnaires (user_id, data, completed_at) VALUES (?, ?, ?)`,
		q.UserID, string(data), q.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert questionnaire: %w", err)
	}
	return nil
}

// LatestQuestionnaire returns the most recent questionnaire for a user by
// completion date, or nil when the user never completed one.
func (r *Repository) LatestQuestionnaire(ctx context.Context, userID string) (*Questionnaire, error) {
	var data string
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM questionnaires WHERE user_id = ? ORDER BY completed_at DESC LIMIT 1`,
		userID,
	).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get questionnaire for user %s: %w", userID, err)
	}

	var q Questionnaire
	if err := json.Unmarshal([]byte(data), &q); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questionnaire: %w", err)
	}
	return &q, nil
}

// SaveNutritionPlan inserts a new baseline nutrition plan row.
func (r *Repository) SaveNutritionPlan(ctx context.Context, p NutritionPlan) error {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO nutrition_plans (user_id, goal_calories, goal_protein_g, goal_carbs_g, goal_fats_g, goal_water_ml, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.GoalCalories, p.GoalProteinG, p.GoalCarbsG, p.GoalFatsG, p.GoalWaterML, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert nutrition plan: %w", err)
	}
	return nil
}

// LatestNutritionPlan returns the most recent baseline plan for a user by
// creation date, or nil when none exists.
func (r *Repository) LatestNutritionPlan(ctx context.Context, userID string) (*NutritionPlan, error) {
	var p NutritionPlan
	err := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, goal_calories, goal_protein_g, goal_carbs_g, goal_fats_g, goal_water_ml, created_at
		 FROM nutrition_plans WHERE user_id = ? ORDER BY created_at DESC LIMIT 1`,
		userID,
	).Scan(&p.ID, &p.UserID, &p.GoalCalories, &p.GoalProteinG, &p.GoalCarbsG, &p.GoalFatsG, &p.GoalWaterML, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get nutrition plan for user %s: %w", userID, err)
	}
	return &p, nil
}
