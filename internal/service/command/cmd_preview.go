package command

import (
	"context"
	"strings"
	"time"

	"github.com/sandevgo/chronicle/internal/core"
	"github.com/sandevgo/chronicle/internal/service/publisher"
)

type PreviewCommand struct {
	pub       *publisher.Publisher
	formatter *ResponseFormatter
}

func NewPreviewCommand(pub *publisher.Publisher) *PreviewCommand {
	return &PreviewCommand{
		pub:       pub,
		formatter: NewResponseFormatter(),
	}
}

func (c *PreviewCommand) Name() string {
	return "preview"
}

func (c *PreviewCommand) Description() string {
	return "Generate a post preview for a document, optionally with a tone"
}

func (c *PreviewCommand) Execute(ctx context.Context, userID int64, sessionID string, args []string) (string, error) {
	if len(args) < 1 {
		return c.formatter.Combine(
			c.formatter.Usage("/preview <doc-id> [tone]"),
			c.formatter.Examples([]string{
				"/preview doc_01hv3k2m9qxz",
				"/preview doc_01hv3k2m9qxz What Broke",
			}),
		), nil
	}

	rec, err := c.pub.Session(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}
	docID, err := resolveDocumentID(rec.Documents, args[0])
	if err != nil {
		return "", err
	}

	tone := strings.Join(args[1:], " ")
	if tone != "" {
		err := c.pub.RecordInteraction(ctx, userID, sessionID, core.InteractionRecord{
			Timestamp:   time.Now().UTC(),
			UserMessage: "selected tone " + tone,
			MessageType: core.MsgToneSelection,
			Context:     map[string]string{"document_id": docID, "tone": tone},
		})
		if err != nil {
			return "", err
		}
	}

	post, err := c.pub.GeneratePost(ctx, userID, sessionID, docID, tone, false)
	if err != nil {
		return "", err
	}
	return post, nil
}

var _ core.Command = (*PreviewCommand)(nil)
