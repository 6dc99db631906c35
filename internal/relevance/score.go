package relevance

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/sandevgo/chronicle/internal/core"
)

// Signal weights. They sum to 1; the combined score is additionally
// clamped to 1 because the similarity boost can push a signal past
// its nominal range.
const (
	weightRecency      = 0.30
	weightSatisfaction = 0.40
	weightSimilarity   = 0.20
	weightImportance   = 0.10

	recencyFloor        = 0.1
	recencyHalfLifeHrs  = 24.0
	defaultSatisfaction = 0.5
	defaultSimilarity   = 0.5
	typeMatchBoost      = 0.2
	importanceFloor     = 0.1
	contextSizeBonusLen = 50
)

// importanceByType ranks message types by how much their records tend
// to matter for follow-up coherence.
var importanceByType = map[core.MessageType]float64{
	core.MsgPostApproval:     1.0,
	core.MsgFeedback:         0.9,
	core.MsgFileUpload:       0.8,
	core.MsgPostRegeneration: 0.7,
	core.MsgToneSelection:    0.6,
	core.MsgText:             0.5,
	core.MsgButtonClick:      0.4,
}

const unknownTypeImportance = 0.3

// typeKeywords associate a request's declared type with words whose
// presence in a record marks it as topical for that request.
var typeKeywords = map[core.MessageType][]string{
	core.MsgPostRegeneration: {"regenerate", "again", "redo", "rewrite", "different"},
	core.MsgToneSelection:    {"tone", "style", "voice", "casual", "formal"},
	core.MsgPostApproval:     {"approve", "publish", "ready", "looks good"},
	core.MsgFeedback:         {"like", "love", "hate", "great", "wrong", "better"},
	core.MsgFileUpload:       {"file", "document", "upload", "journal"},
	core.MsgText:             {"post", "content", "write"},
}

// Request is the pending generation request records are scored
// against.
type Request struct {
	Text string
	Type core.MessageType
	Now  time.Time
}

func (r Request) now() time.Time {
	if r.Now.IsZero() {
		return time.Now()
	}
	return r.Now
}

// Score rates one historical record's relevance to the request,
// in [0, 1]. Total: every missing optional field resolves to a
// documented default.
func Score(rec core.InteractionRecord, req Request) float64 {
	score := weightRecency*recencyScore(rec, req.now()) +
		weightSatisfaction*satisfactionScore(rec) +
		weightSimilarity*similarityScore(rec, req) +
		weightImportance*importanceScore(rec)

	if score > 1 {
		score = 1
	}
	return score
}

// recencyScore decays exponentially over a 24-hour scale with a 0.1
// floor. An unset timestamp scores the neutral 0.5.
func recencyScore(rec core.InteractionRecord, now time.Time) float64 {
	if rec.Timestamp.IsZero() {
		return 0.5
	}
	hours := now.Sub(rec.Timestamp).Hours()
	if hours < 0 {
		hours = 0
	}
	score := math.Exp(-hours / recencyHalfLifeHrs)
	if score < recencyFloor {
		score = recencyFloor
	}
	return score
}

func satisfactionScore(rec core.InteractionRecord) float64 {
	if rec.SatisfactionScore == nil {
		return defaultSatisfaction
	}
	return *rec.SatisfactionScore
}

// similarityScore is the Jaccard similarity of the whitespace token
// sets, boosted when the request type's keywords show up in the
// record, capped at 1.
func similarityScore(rec core.InteractionRecord, req Request) float64 {
	recText := recordText(rec)
	recTokens := tokenize(recText)
	reqTokens := tokenize(req.Text)

	var score float64
	if len(recTokens) == 0 || len(reqTokens) == 0 {
		score = defaultSimilarity
	} else {
		var intersection int
		union := make(map[string]bool, len(recTokens)+len(reqTokens))
		for tok := range recTokens {
			union[tok] = true
		}
		for tok := range reqTokens {
			if recTokens[tok] {
				intersection++
			}
			union[tok] = true
		}
		score = float64(intersection) / float64(len(union))
	}

	lowerRec := strings.ToLower(recText)
	for _, kw := range typeKeywords[req.Type] {
		if strings.Contains(lowerRec, kw) {
			score += typeMatchBoost
			break
		}
	}
	if score > 1 {
		score = 1
	}
	return score
}

// importanceScore starts from the message-type table and adjusts for
// satisfaction extremes and a substantial context payload, clamped to
// [0.1, 1.0].
func importanceScore(rec core.InteractionRecord) float64 {
	score, ok := importanceByType[rec.MessageType]
	if !ok {
		score = unknownTypeImportance
	}

	if rec.SatisfactionScore != nil {
		if *rec.SatisfactionScore > 0.8 {
			score += 0.2
		} else if *rec.SatisfactionScore < 0.3 {
			score -= 0.1
		}
	}

	if len(rec.Context) > 0 {
		if payload, err := json.Marshal(rec.Context); err == nil && len(payload) > contextSizeBonusLen {
			score += 0.1
		}
	}

	if score > 1 {
		score = 1
	}
	if score < importanceFloor {
		score = importanceFloor
	}
	return score
}

func recordText(rec core.InteractionRecord) string {
	return strings.TrimSpace(rec.UserMessage + " " + rec.SystemResponse)
}

func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tokens[tok] = true
	}
	return tokens
}
