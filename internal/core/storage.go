package core

import (
	"context"
	"time"
)

// SessionRecord embeds everything a session owns. The store persists
// it opaquely and performs no interpretation of its contents.
type SessionRecord struct {
	UserID       int64               `json:"user_id"`
	SessionID    string              `json:"session_id"`
	StartedAt    time.Time           `json:"started_at"`
	Deadline     time.Time           `json:"deadline"`
	Finalized    bool                `json:"finalized"`
	Documents    []SourceDocument    `json:"documents"`
	Narrative    *ProjectNarrative   `json:"narrative,omitempty"`
	Strategy     *PostingStrategy    `json:"strategy,omitempty"`
	Interactions []InteractionRecord `json:"interactions"`
}

// Expired reports whether the batch deadline has passed. Advisory:
// checked at interaction entry points, never enforced by preemption.
func (s SessionRecord) Expired(now time.Time) bool {
	return !s.Deadline.IsZero() && now.After(s.Deadline)
}

// Preferences are per-user defaults that survive sessions.
type Preferences struct {
	PreferredTones     []string `json:"preferred_tones,omitempty"`
	PreferredAudiences []string `json:"preferred_audiences,omitempty"`
	ContextTokenBudget int      `json:"context_token_budget,omitempty"`
}

// SessionStore is the durable storage collaborator, keyed by user id
// and session id.
type SessionStore interface {
	Save(ctx context.Context, userID int64, sessionID string, rec SessionRecord) error
	Load(ctx context.Context, userID int64, sessionID string) (SessionRecord, bool, error)
	Delete(ctx context.Context, userID int64, sessionID string) error
	SavePreferences(ctx context.Context, userID int64, prefs Preferences) error
	LoadPreferences(ctx context.Context, userID int64) (Preferences, bool, error)
}
