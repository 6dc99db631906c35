package memstore

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/sandevgo/chronicle/internal/core"
)

// Store is an in-process SessionStore with a TTL matching the batch
// deadline. Preferences never expire.
type Store struct {
	sessions *gocache.Cache
	prefs    *gocache.Cache
}

var _ core.SessionStore = (*Store)(nil)

func New(ttl time.Duration) *Store {
	return &Store{
		sessions: gocache.New(ttl, ttl/2),
		prefs:    gocache.New(gocache.NoExpiration, 0),
	}
}

func sessionKey(userID int64, sessionID string) string {
	return fmt.Sprintf("%d/%s", userID, sessionID)
}

func prefsKey(userID int64) string {
	return fmt.Sprintf("%d", userID)
}

func (s *Store) Save(_ context.Context, userID int64, sessionID string, rec core.SessionRecord) error {
	s.sessions.SetDefault(sessionKey(userID, sessionID), rec)
	return nil
}

func (s *Store) Load(_ context.Context, userID int64, sessionID string) (core.SessionRecord, bool, error) {
	v, ok := s.sessions.Get(sessionKey(userID, sessionID))
	if !ok {
		return core.SessionRecord{}, false, nil
	}
	return v.(core.SessionRecord), true, nil
}

func (s *Store) Delete(_ context.Context, userID int64, sessionID string) error {
	s.sessions.Delete(sessionKey(userID, sessionID))
	return nil
}

func (s *Store) SavePreferences(_ context.Context, userID int64, prefs core.Preferences) error {
	s.prefs.SetDefault(prefsKey(userID), prefs)
	return nil
}

func (s *Store) LoadPreferences(_ context.Context, userID int64) (core.Preferences, bool, error) {
	v, ok := s.prefs.Get(prefsKey(userID))
	if !ok {
		return core.Preferences{}, false, nil
	}
	return v.(core.Preferences), true, nil
}
