package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sandevgo/chronicle/internal/core"
)

type HelpCommand struct {
	commands  []core.Command
	formatter *ResponseFormatter
}

func NewHelpCommand(commands []core.Command) *HelpCommand {
	return &HelpCommand{
		commands:  commands,
		formatter: NewResponseFormatter(),
	}
}

func (c *HelpCommand) Name() string {
	return "help"
}

func (c *HelpCommand) Description() string {
	return "List available commands"
}

func (c *HelpCommand) Execute(_ context.Context, _ int64, _ string, _ []string) (string, error) {
	var items []string
	for _, cmd := range c.commands {
		items = append(items, fmt.Sprintf("/%s: %s", cmd.Name(), cmd.Description()))
	}
	items = append(items, "/help: "+c.Description())
	sort.Strings(items)

	return c.formatter.Combine(
		c.formatter.Info("Commands"),
		c.formatter.List(items),
		c.formatter.Tip("upload journal files as documents; everything else is driven by commands and buttons"),
	), nil
}

var _ core.Command = (*HelpCommand)(nil)

// resolveDocumentID expands a shortened id to the full stored id. It
// accepts the exact form /sequence prints as well as a typed prefix;
// ambiguous prefixes are rejected.
func resolveDocumentID(docs []core.SourceDocument, id string) (string, error) {
	var match string
	for _, doc := range docs {
		if doc.ID == id || shortID(doc.ID) == id {
			return doc.ID, nil
		}
		if strings.HasPrefix(doc.ID, id) {
			if match != "" {
				return "", fmt.Errorf("%w: ambiguous document id %q", core.ErrInvalidCustomization, id)
			}
			match = doc.ID
		}
	}
	if match == "" {
		return "", core.ErrDocumentNotFound
	}
	return match, nil
}
