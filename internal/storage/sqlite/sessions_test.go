package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/sandevgo/chronicle/internal/core"
	"github.com/sandevgo/chronicle/pkg/log"
)

func newTestStore(t *testing.T) (*Store, context.Context) {
	t.Helper()
	ctx, flush := log.NewContextWithLogger(context.Background(), false)
	t.Cleanup(flush)

	db, err := NewDB(ctx, filepath.Join(t.TempDir(), "chronicle.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	return NewStore(db), ctx
}

func TestStore_SessionRoundtrip(t *testing.T) {
	s, ctx := newTestStore(t)

	rec := core.SessionRecord{
		UserID:    42,
		SessionID: "ses_abc",
		StartedAt: time.Now().UTC().Truncate(time.Second),
		Documents: []core.SourceDocument{{ID: "doc_1", Filename: "day1.md", Phase: core.PhasePlanning}},
		Interactions: []core.InteractionRecord{
			{UserMessage: "uploaded day1.md", MessageType: core.MsgFileUpload},
		},
	}

	if err := s.Save(ctx, 42, "ses_abc", rec); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, ok, err := s.Load(ctx, 42, "ses_abc")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !ok {
		t.Fatal("expected session to exist")
	}
	if got.SessionID != rec.SessionID || len(got.Documents) != 1 || len(got.Interactions) != 1 {
		t.Errorf("unexpected record %+v", got)
	}
	if got.Documents[0].Phase != core.PhasePlanning {
		t.Errorf("unexpected phase %s", got.Documents[0].Phase)
	}
}

func TestStore_SaveOverwrites(t *testing.T) {
	s, ctx := newTestStore(t)

	first := core.SessionRecord{UserID: 1, SessionID: "ses_x"}
	_ = s.Save(ctx, 1, "ses_x", first)

	second := first
	second.Finalized = true
	if err := s.Save(ctx, 1, "ses_x", second); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	got, ok, _ := s.Load(ctx, 1, "ses_x")
	if !ok || !got.Finalized {
		t.Error("expected the overwritten record")
	}
}

func TestStore_MissingRows(t *testing.T) {
	s, ctx := newTestStore(t)

	if _, ok, err := s.Load(ctx, 9, "ses_none"); err != nil || ok {
		t.Errorf("expected clean miss, ok=%v err=%v", ok, err)
	}
	if _, ok, err := s.LoadPreferences(ctx, 9); err != nil || ok {
		t.Errorf("expected clean preferences miss, ok=%v err=%v", ok, err)
	}
}

func TestStore_Delete(t *testing.T) {
	s, ctx := newTestStore(t)

	_ = s.Save(ctx, 1, "ses_y", core.SessionRecord{UserID: 1, SessionID: "ses_y"})
	if err := s.Delete(ctx, 1, "ses_y"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := s.Load(ctx, 1, "ses_y"); ok {
		t.Error("expected session to be gone")
	}
}

func TestStore_PreferencesRoundtrip(t *testing.T) {
	s, ctx := newTestStore(t)

	prefs := core.Preferences{
		PreferredTones:     []string{"What Broke", "Mini Lesson"},
		ContextTokenBudget: 800,
	}
	if err := s.SavePreferences(ctx, 5, prefs); err != nil {
		t.Fatalf("save preferences: %v", err)
	}

	got, ok, err := s.LoadPreferences(ctx, 5)
	if err != nil || !ok {
		t.Fatalf("load preferences: ok=%v err=%v", ok, err)
	}
	if len(got.PreferredTones) != 2 || got.ContextTokenBudget != 800 {
		t.Errorf("unexpected preferences %+v", got)
	}
}
