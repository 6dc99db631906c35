package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/chronicle/internal/core"
	"github.com/sandevgo/chronicle/internal/service/publisher"
)

type ExcludeCommand struct {
	pub       *publisher.Publisher
	formatter *ResponseFormatter
}

func NewExcludeCommand(pub *publisher.Publisher) *ExcludeCommand {
	return &ExcludeCommand{
		pub:       pub,
		formatter: NewResponseFormatter(),
	}
}

func (c *ExcludeCommand) Name() string {
	return "exclude"
}

func (c *ExcludeCommand) Description() string {
	return "Re-sequence without a theme or document"
}

func (c *ExcludeCommand) Execute(ctx context.Context, userID int64, sessionID string, args []string) (string, error) {
	if len(args) < 2 {
		return c.formatter.Combine(
			c.formatter.Usage("/exclude theme <name> | /exclude doc <id>"),
			c.formatter.Examples([]string{
				"/exclude theme security",
				"/exclude doc doc_01hv3k2m9qxz",
			}),
		), nil
	}

	var custom core.Customization
	value := strings.Join(args[1:], " ")
	switch args[0] {
	case "theme":
		custom.ExcludedThemes = []string{value}
	case "doc":
		// Chat surfaces print shortened ids, so expand before excluding.
		rec, err := c.pub.Session(ctx, userID, sessionID)
		if err != nil {
			return "", err
		}
		docID, err := resolveDocumentID(rec.Documents, args[1])
		if err != nil {
			return "", err
		}
		value = docID
		custom.ExcludedDocuments = []string{docID}
	default:
		return "", fmt.Errorf("%w: unknown exclusion kind %q", core.ErrInvalidCustomization, args[0])
	}

	plan, err := c.pub.Customize(ctx, userID, sessionID, custom)
	if err != nil {
		return "", err
	}

	return c.formatter.Combine(
		c.formatter.Success(fmt.Sprintf("Excluded %s %q", args[0], value)),
		formatSequence(plan),
		c.formatter.Label("Flow", plan.NarrativeFlow),
	), nil
}

var _ core.Command = (*ExcludeCommand)(nil)
