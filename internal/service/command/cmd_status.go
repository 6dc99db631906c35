package command

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/sandevgo/chronicle/internal/core"
	"github.com/sandevgo/chronicle/internal/service/publisher"
)

type StatusCommand struct {
	pub       *publisher.Publisher
	formatter *ResponseFormatter
}

func NewStatusCommand(pub *publisher.Publisher) *StatusCommand {
	return &StatusCommand{
		pub:       pub,
		formatter: NewResponseFormatter(),
	}
}

func (c *StatusCommand) Name() string {
	return "status"
}

func (c *StatusCommand) Description() string {
	return "Show the current batch: documents, phases, deadline"
}

func (c *StatusCommand) Execute(ctx context.Context, userID int64, sessionID string, args []string) (string, error) {
	rec, err := c.pub.Session(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}

	var items []string
	for _, doc := range rec.Documents {
		items = append(items, fmt.Sprintf("%s — %s (%d words, complexity %.2f)",
			doc.Filename, doc.Phase, doc.WordCount, doc.ComplexityScore))
	}
	if len(items) == 0 {
		items = append(items, "no documents yet — send me a journal file")
	}

	remaining := time.Until(rec.Deadline).Round(time.Minute)
	deadline := "expired"
	if remaining > 0 {
		deadline = remaining.String() + " left"
	}

	return c.formatter.Combine(
		c.formatter.Info("Batch Status"),
		c.formatter.List(items),
		c.formatter.Label("Documents", strconv.Itoa(len(rec.Documents))),
		c.formatter.Label("Finalized", strconv.FormatBool(rec.Finalized)),
		c.formatter.Label("Deadline", deadline),
	), nil
}

var _ core.Command = (*StatusCommand)(nil)
