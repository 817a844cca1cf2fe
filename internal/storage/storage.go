package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"nutri-planner/internal/menu"
)

// SnapshotStore provides file-based archival of meal plans with their
// generation snapshots. One file per plan, versioned by creation timestamp,
// so a regenerated plan never overwrites an earlier one.
type SnapshotStore struct {
	basePath string
}

// NewSnapshotStore creates a new SnapshotStore and ensures the base directory exists.
func NewSnapshotStore(basePath string) (*SnapshotStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory %s: %w", basePath, err)
	}
	return &SnapshotStore{basePath: basePath}, nil
}

// sanitizeTimestamp makes the timestamp safe for filenames.
func sanitizeTimestamp(ts string) string {
	return strings.ReplaceAll(ts, ":", "-")
}

func (s *SnapshotStore) pathFor(menuID, createdAt string) string {
	filename := fmt.Sprintf("%s_%s.json", menuID, sanitizeTimestamp(createdAt))
	return filepath.Join(s.basePath, filename)
}

// Archive writes the full plan, snapshot included, to the archive directory.
func (s *SnapshotStore) Archive(plan *menu.MealPlan) error {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	filePath := s.pathFor(plan.MenuID, plan.CreatedAt.UTC().Format("2006-01-02T15-04-05"))
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write plan archive file: %w", err)
	}
	return nil
}

// LoadLatest retrieves the most recently archived version of a plan.
func (s *SnapshotStore) LoadLatest(menuID string) (*menu.MealPlan, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, fmt.Sprintf("%s_*.json", menuID)))
	if err != nil {
		return nil, fmt.Errorf("failed to glob archive files: %w", err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no archived plan found for menu %s", menuID)
	}
	sort.Strings(matches)

	data, err := os.ReadFile(matches[len(matches)-1])
	if err != nil {
		return nil, fmt.Errorf("failed to read plan archive file: %w", err)
	}

	var plan menu.MealPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal archived plan: %w", err)
	}
	return &plan, nil
}

// Exists checks whether any archived version of the plan exists.
func (s *SnapshotStore) Exists(menuID string) bool {
	matches, err := filepath.Glob(filepath.Join(s.basePath, fmt.Sprintf("%s_*.json", menuID)))
	return err == nil && len(matches) > 0
}
