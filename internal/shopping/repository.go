package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository handles persistence of shopping lists.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save creates a new shopping list in the database.
func (r *Repository) Save(ctx context.Context, list *ShoppingList) (int64, error) {
	itemsJSON, err := json.Marshal(list.Items)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal shopping list items: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO shopping_lists (user_id, meal_plan_id, items, created_at) VALUES (?, ?, ?, ?)`,
		list.UserID, list.MealPlanID, string(itemsJSON), time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert shopping list: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read shopping list id: %w", err)
	}
	list.ID = id
	return id, nil
}

// GetByMealPlanID retrieves a shopping list by meal plan ID, or nil when none
// exists.
func (r *Repository) GetByMealPlanID(ctx context.Context, mealPlanID int64) (*ShoppingList, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, meal_plan_id, items, created_at FROM shopping_lists WHERE meal_plan_id = ?`,
		mealPlanID)

	var list ShoppingList
	var itemsJSON string
	err := row.Scan(&list.ID, &list.UserID, &list.MealPlanID, &itemsJSON, &list.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shopping list by meal plan ID: %w", err)
	}

	if err := json.Unmarshal([]byte(itemsJSON), &list.Items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal shopping list items: %w", err)
	}
	return &list, nil
}

// DeleteByMealPlanID deletes a shopping list by meal plan ID.
func (r *Repository) DeleteByMealPlanID(ctx context.Context, mealPlanID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM shopping_lists WHERE meal_plan_id = ?`, mealPlanID)
	if err != nil {
		return fmt.Errorf("failed to delete shopping list: %w", err)
	}
	return nil
}
