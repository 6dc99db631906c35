package relevance

import (
	"math"
	"testing"
	"time"

	"github.com/sandevgo/chronicle/internal/core"
)

func ptr(f float64) *float64 { return &f }

func TestScore_DefaultsForEmptyRecord(t *testing.T) {
	rec := core.InteractionRecord{}
	req := Request{Now: time.Now()}

	got := Score(rec, req)

	// recency 0.5, satisfaction 0.5, similarity 0.5, importance 0.3
	want := 0.30*0.5 + 0.40*0.5 + 0.20*0.5 + 0.10*0.3
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestScore_FreshApprovalScoresHigh(t *testing.T) {
	now := time.Now()
	rec := core.InteractionRecord{
		Timestamp:         now,
		UserMessage:       "approve this post about the caching rewrite",
		MessageType:       core.MsgPostApproval,
		SatisfactionScore: ptr(0.9),
	}
	req := Request{
		Text: "approve this post about the caching rewrite",
		Type: core.MsgPostApproval,
		Now:  now,
	}

	got := Score(rec, req)

	// recency 1.0, satisfaction 0.9, similarity capped at 1, importance capped at 1
	want := 0.30*1.0 + 0.40*0.9 + 0.20*1.0 + 0.10*1.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected %f, got %f", want, got)
	}
}

func TestScore_RecencyOutranksStaleTwin(t *testing.T) {
	now := time.Now()
	fresh := core.InteractionRecord{Timestamp: now, UserMessage: "loved the tone"}
	stale := fresh
	stale.Timestamp = now.Add(-48 * time.Hour)
	req := Request{Text: "write the next one in the same tone", Now: now}

	if Score(fresh, req) <= Score(stale, req) {
		t.Error("expected the fresher record to outrank its stale twin")
	}
}

func TestRecencyScore(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name string
		ts   time.Time
		want float64
	}{
		{"zero timestamp is neutral", time.Time{}, 0.5},
		{"now is 1.0", now, 1.0},
		{"future clamps to 1.0", now.Add(time.Hour), 1.0},
		{"ten days hits the floor", now.Add(-240 * time.Hour), 0.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recencyScore(core.InteractionRecord{Timestamp: tt.ts}, now)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}

	dayOld := recencyScore(core.InteractionRecord{Timestamp: now.Add(-24 * time.Hour)}, now)
	if math.Abs(dayOld-math.Exp(-1)) > 1e-9 {
		t.Errorf("expected e^-1 after one day, got %f", dayOld)
	}
}

func TestSimilarityScore_TypeKeywordBoost(t *testing.T) {
	rec := core.InteractionRecord{UserMessage: "please regenerate that one"}
	req := Request{Type: core.MsgPostRegeneration}

	// empty request text defaults to 0.5, plus the 0.2 type boost
	got := similarityScore(rec, req)
	if math.Abs(got-0.7) > 1e-9 {
		t.Errorf("expected 0.7, got %f", got)
	}
}

func TestSimilarityScore_JaccardTokens(t *testing.T) {
	rec := core.InteractionRecord{UserMessage: "alpha beta"}
	req := Request{Text: "beta gamma"}

	// one of three union tokens
	got := similarityScore(rec, req)
	if math.Abs(got-1.0/3) > 1e-9 {
		t.Errorf("expected 1/3, got %f", got)
	}
}

func TestImportanceScore(t *testing.T) {
	tests := []struct {
		name string
		rec  core.InteractionRecord
		want float64
	}{
		{
			name: "approval tops the table",
			rec:  core.InteractionRecord{MessageType: core.MsgPostApproval},
			want: 1.0,
		},
		{
			name: "button click ranks low",
			rec:  core.InteractionRecord{MessageType: core.MsgButtonClick},
			want: 0.4,
		},
		{
			name: "unknown type gets the baseline",
			rec:  core.InteractionRecord{MessageType: "mystery"},
			want: 0.3,
		},
		{
			name: "high satisfaction bonus",
			rec:  core.InteractionRecord{MessageType: core.MsgText, SatisfactionScore: ptr(0.9)},
			want: 0.7,
		},
		{
			name: "low satisfaction penalty",
			rec:  core.InteractionRecord{MessageType: core.MsgText, SatisfactionScore: ptr(0.1)},
			want: 0.4,
		},
		{
			name: "clamped at 1.0",
			rec: core.InteractionRecord{
				MessageType:       core.MsgFeedback,
				SatisfactionScore: ptr(1.0),
				Context: map[string]string{
					"document_id": "doc_0123456789abcdef",
					"tone":        "Problem → Solution → Result",
				},
			},
			want: 1.0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := importanceScore(tt.rec)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.want, got)
			}
		})
	}
}
