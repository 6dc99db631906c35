package command

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/sandevgo/chronicle/internal/core"
	"github.com/sandevgo/chronicle/internal/service/publisher"
)

type FinalizeCommand struct {
	pub       *publisher.Publisher
	formatter *ResponseFormatter
}

func NewFinalizeCommand(pub *publisher.Publisher) *FinalizeCommand {
	return &FinalizeCommand{
		pub:       pub,
		formatter: NewResponseFormatter(),
	}
}

func (c *FinalizeCommand) Name() string {
	return "finalize"
}

func (c *FinalizeCommand) Description() string {
	return "Close the batch and build narrative and posting plan"
}

func (c *FinalizeCommand) Execute(ctx context.Context, userID int64, sessionID string, args []string) (string, error) {
	narrative, plan, err := c.pub.Finalize(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}

	var threads []string
	for _, t := range narrative.ContentThreads {
		threads = append(threads, fmt.Sprintf("%s: %s (%.0f%%)", t.Type, t.Name, t.Strength*100))
	}

	sections := []string{
		c.formatter.Info("Project Narrative"),
		c.formatter.Label("Theme", narrative.ProjectTheme),
		c.formatter.Label("Arc", narrative.NarrativeArc),
		c.formatter.Label("Completeness", fmt.Sprintf("%.0f%%", narrative.CompletenessScore*100)),
		c.formatter.Label("Cohesion", fmt.Sprintf("%.0f%%", narrative.CohesionScore*100)),
		c.formatter.Label("Estimated posts", strconv.Itoa(narrative.EstimatedPosts)),
	}
	if len(narrative.TechnicalStack) > 0 {
		sections = append(sections, c.formatter.Label("Stack", strings.Join(narrative.TechnicalStack, ", ")))
	}
	if len(threads) > 0 {
		sections = append(sections, c.formatter.Section("🧵", "Content Threads", c.formatter.List(threads)))
	}
	sections = append(sections,
		c.formatter.Section("🗓", "Posting Plan", formatSequence(plan)),
		c.formatter.Tip("use /sequence to review, /exclude to trim themes or files"),
	)
	return c.formatter.Combine(sections...), nil
}

var _ core.Command = (*FinalizeCommand)(nil)
