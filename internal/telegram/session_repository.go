package telegram

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Session represents an active user dialog (e.g., awaiting the free-text
// request after /custom).
type Session struct {
	ID          int64
	UserID      string
	SessionType string
	State       string
	ContextData string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// SessionContextData holds structured data stored in the context_data JSON field.
type SessionContextData struct {
	Days        int    `json:"days,omitempty"`
	MealsPerDay int    `json:"meals_per_day,omitempty"`
	Request     string `json:"request,omitempty"`
}

// GetContextData unmarshals the context_data JSON field.
func (s *Session) GetContextData() (SessionContextData, error) {
	var data SessionContextData
	err := json.Unmarshal([]byte(s.ContextData), &data)
	return data, err
}

// SessionRepository provides access to session persistence operations.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository instance.
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create creates a new session and returns its ID.
func (sr *SessionRepository) Create(ctx context.Context, userID, sessionType, state string, contextData SessionContextData, ttlSeconds int) (int64, error) {
	jsonData, err := json.Marshal(contextData)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	res, err := sr.db.ExecContext(ctx,
		`INSERT INTO sessions (user_id, session_type, state, context_data, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		userID, sessionType, state, string(jsonData), now.Add(time.Duration(ttlSeconds)*time.Second), now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}
	return res.LastInsertId()
}

// GetActive retrieves the most recent non-expired session for a user.
func (sr *SessionRepository) GetActive(ctx context.Context, userID string, now time.Time) (*Session, error) {
	row := sr.db.QueryRowContext(ctx,
		`SELECT id, user_id, session_type, state, context_data, expires_at, created_at
		 FROM sessions WHERE user_id = ? AND expires_at > ?
		 ORDER BY created_at DESC LIMIT 1`, userID, now)

	var s Session
	err := row.Scan(&s.ID, &s.UserID, &s.SessionType, &s.State, &s.ContextData, &s.ExpiresAt, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load active session: %w", err)
	}
	return &s, nil
}

// Update updates the state and context_data for a session.
func (sr *SessionRepository) Update(ctx context.Context, sessionID int64, state string, contextData SessionContextData) error {
	jsonData, err := json.Marshal(contextData)
	if err != nil {
		return err
	}
	_, err = sr.db.ExecContext(ctx,
		`UPDATE sessions SET state = ?, context_data = ? WHERE id = ?`,
		state, string(jsonData), sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	return nil
}

// Delete removes a session.
func (sr *SessionRepository) Delete(ctx context.Context, sessionID int64) error {
	_, err := sr.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
	return err
}

// CleanupExpired removes all expired sessions.
func (sr *SessionRepository) CleanupExpired(ctx context.Context) error {
	_, err := sr.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC())
	return err
}
