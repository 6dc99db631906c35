package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sandevgo/chronicle/internal/core"
	"github.com/sandevgo/chronicle/pkg/log"
)

// Store persists session records and per-user preferences. Records are
// stored as opaque JSON; the store performs no interpretation.
type Store struct {
	db *sql.DB
}

var _ core.SessionStore = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Save(ctx context.Context, userID int64, sessionID string, rec core.SessionRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal session record: %w", err)
	}

	query := `INSERT INTO sessions (user_id, session_id, record, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, session_id) DO UPDATE SET record = excluded.record, updated_at = CURRENT_TIMESTAMP`
	if _, err := s.db.ExecContext(ctx, query, userID, sessionID, string(payload)); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	log.FromCtx(ctx).Debug().
		Int64("user_id", userID).
		Str("session_id", sessionID).
		Int("bytes", len(payload)).
		Msg("session saved")
	return nil
}

func (s *Store) Load(ctx context.Context, userID int64, sessionID string) (core.SessionRecord, bool, error) {
	var payload string
	query := `SELECT record FROM sessions WHERE user_id = ? AND session_id = ?`
	err := s.db.QueryRowContext(ctx, query, userID, sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.SessionRecord{}, false, nil
	}
	if err != nil {
		return core.SessionRecord{}, false, fmt.Errorf("failed to load session: %w", err)
	}

	var rec core.SessionRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		return core.SessionRecord{}, false, fmt.Errorf("failed to unmarshal session record: %w", err)
	}
	return rec, true, nil
}

func (s *Store) Delete(ctx context.Context, userID int64, sessionID string) error {
	query := `DELETE FROM sessions WHERE user_id = ? AND session_id = ?`
	if _, err := s.db.ExecContext(ctx, query, userID, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Store) SavePreferences(ctx context.Context, userID int64, prefs core.Preferences) error {
	payload, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	query := `INSERT INTO preferences (user_id, prefs, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET prefs = excluded.prefs, updated_at = CURRENT_TIMESTAMP`
	if _, err := s.db.ExecContext(ctx, query, userID, string(payload)); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}

func (s *Store) LoadPreferences(ctx context.Context, userID int64) (core.Preferences, bool, error) {
	var payload string
	query := `SELECT prefs FROM preferences WHERE user_id = ?`
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Preferences{}, false, nil
	}
	if err != nil {
		return core.Preferences{}, false, fmt.Errorf("failed to load preferences: %w", err)
	}

	var prefs core.Preferences
	if err := json.Unmarshal([]byte(payload), &prefs); err != nil {
		return core.Preferences{}, false, fmt.Errorf("failed to unmarshal preferences: %w", err)
	}
	return prefs, true, nil
}
