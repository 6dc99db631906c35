package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/chronicle/internal/core"
	"github.com/sandevgo/chronicle/internal/service/publisher"
)

type SequenceCommand struct {
	pub       *publisher.Publisher
	formatter *ResponseFormatter
}

func NewSequenceCommand(pub *publisher.Publisher) *SequenceCommand {
	return &SequenceCommand{
		pub:       pub,
		formatter: NewResponseFormatter(),
	}
}

func (c *SequenceCommand) Name() string {
	return "sequence"
}

func (c *SequenceCommand) Description() string {
	return "Show the current posting sequence and cross-references"
}

func (c *SequenceCommand) Execute(ctx context.Context, userID int64, sessionID string, args []string) (string, error) {
	rec, err := c.pub.Session(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}
	if rec.Strategy == nil {
		return "", core.ErrBatchNotReady
	}

	plan := *rec.Strategy
	sections := []string{
		c.formatter.Info("Posting Sequence"),
		formatSequence(plan),
		c.formatter.Label("Flow", plan.NarrativeFlow),
		c.formatter.Label("Timeline", plan.TimelineHint),
		c.formatter.Label("Audience split", fmt.Sprintf("%d technical / %d business", plan.TechnicalPosts, plan.BusinessPosts)),
	}

	if len(plan.CrossReferences) > 0 {
		var refs []string
		for _, ref := range plan.CrossReferences {
			refs = append(refs, fmt.Sprintf("%s → %s (%s): %s", shortID(ref.FromID), shortID(ref.ToID), ref.ConnectionType, ref.ReferenceText))
		}
		sections = append(sections, c.formatter.Section("🔗", "Cross-References", c.formatter.List(refs)))
	}

	return c.formatter.Combine(sections...), nil
}

// formatSequence renders the ordered entries shared by /finalize and
// /sequence output.
func formatSequence(plan core.PostingStrategy) string {
	var sb strings.Builder
	for _, entry := range plan.Sequence {
		sb.WriteString(fmt.Sprintf("%d. `%s` — %s, tone: %s, audience: %s\n",
			entry.Position, shortID(entry.DocumentID), entry.Theme, entry.RecommendedTone, entry.TargetAudience))
	}
	if sb.Len() == 0 {
		return "empty sequence\n"
	}
	return sb.String()
}

// shortID keeps the kind prefix and the entropy tail. The leading ulid
// characters encode a timestamp and match across one batch, so they
// carry no distinguishing value in chat output.
func shortID(id string) string {
	i := strings.IndexByte(id, '_')
	if i < 0 || len(id)-i-1 <= 8 {
		return id
	}
	return id[:i+1] + id[len(id)-8:]
}

var _ core.Command = (*SequenceCommand)(nil)
