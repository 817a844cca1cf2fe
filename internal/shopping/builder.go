package shopping

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"nutri-planner/internal/menu"
)

// gramPrefix matches ingredient strings like "150g chicken breast".
var gramPrefix = regexp.MustCompile(`^(\d+(?:\.\d+)?)\s*g\s+(.+)$`)

// Builder derives shopping lists from meal plans and stores them.
type Builder struct {
	repo *Repository
}

// NewBuilder creates a new Builder.
func NewBuilder(repo *Repository) *Builder {
	return &Builder{repo: repo}
}

// SaveFromPlan aggregates the plan's ingredients into one list and persists
// it, replacing any list already stored for the plan.
func (b *Builder) SaveFromPlan(ctx context.Context, plan *menu.MealPlan) error {
	items := AggregateItems(plan)
	if len(items) == 0 {
		return nil
	}

	if err := b.repo.DeleteByMealPlanID(ctx, plan.ID); err != nil {
		return err
	}
	_, err := b.repo.Save(ctx, &ShoppingList{
		UserID:     plan.UserID,
		MealPlanID: plan.ID,
		Items:      items,
	})
	return err
}

// AggregateItems flattens every ingredient in the plan into a sorted shopping
// list. Gram-quantified ingredients are summed by name; everything else is
// deduplicated with an occurrence count.
func AggregateItems(plan *menu.MealPlan) []string {
	grams := make(map[string]float64)
	counts := make(map[string]int)
	display := make(map[string]string)

	for _, day := range plan.Days {
		for _, meal := range day.Meals {
			for _, ing := range meal.Ingredients {
				ing = strings.TrimSpace(ing)
				if ing == "" {
					continue
				}
				if m := gramPrefix.FindStringSubmatch(ing); m != nil {
					qty, err := strconv.ParseFloat(m[1], 64)
					if err == nil {
						key := strings.ToLower(m[2])
						grams[key] += qty
						display[key] = m[2]
						continue
					}
				}
				key := strings.ToLower(ing)
				counts[key]++
				display[key] = ing
			}
		}
	}

	items := make([]string, 0, len(grams)+len(counts))
	for key, total := range grams {
		items = append(items, fmt.Sprintf("%.0fg %s", total, display[key]))
	}
	for key, n := range counts {
		if n > 1 {
			items = append(items, fmt.Sprintf("%s (x%d)", display[key], n))
		} else {
			items = append(items, display[key])
		}
	}
	sort.Strings(items)
	return items
}
