package insights

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// MealLog is one logged intake entry. Slot is optional; water-only entries
// carry zero macros.
type MealLog struct {
	ID       int64     `json:"id"`
	UserID   string    `json:"user_id"`
	LoggedAt time.Time `json:"logged_at"`
	MealSlot string    `json:"meal_slot"`
	Calories float64   `json:"calories"`
	ProteinG float64   `json:"protein_g"`
	CarbsG   float64   `json:"carbs_g"`
	FatsG    float64   `json:"fats_g"`
	WaterML  float64   `json:"water_ml"`
}

// LogRepository is a database-backed store for nutrition logs.
type LogRepository struct {
	db *sql.DB
}

// NewLogRepository creates a new LogRepository.
func NewLogRepository(d *sql.DB) *LogRepository {
	return &LogRepository{db: d}
}

// LogMeal inserts an intake entry.
func (r *LogRepository) LogMeal(ctx context.Context, log MealLog) error {
	if log.LoggedAt.IsZero() {
		log.LoggedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO nutrition_logs (user_id, logged_at, meal_slot, calories, protein_g, carbs_g, fats_g, water_ml)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.UserID, log.LoggedAt, log.MealSlot, log.Calories, log.ProteinG, log.CarbsG, log.FatsG, log.WaterML,
	)
	if err != nil {
		return fmt.Errorf("failed to insert nutrition log: %w", err)
	}
	return nil
}

// ListSince returns a user's logs from the given instant onward, oldest first.
func (r *LogRepository) ListSince(ctx context.Context, userID string, since time.Time) ([]MealLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, logged_at, meal_slot, calories, protein_g, carbs_g, fats_g, water_ml
		 FROM nutrition_logs WHERE user_id = ? AND logged_at >= ? ORDER BY logged_at ASC`,
		userID, since,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list nutrition logs for user %s: %w", userID, err)
	}
	defer rows.Close()

	var logs []MealLog
	for rows.Next() {
		var l MealLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.LoggedAt, &l.MealSlot,
			&l.Calories, &l.ProteinG, &l.CarbsG, &l.FatsG, &l.WaterML); err != nil {
			return nil, fmt.Errorf("failed to scan nutrition log row: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
