package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sandevgo/chronicle/internal/core"
	"github.com/sandevgo/chronicle/pkg/log"
)

const (
	textWeight     = 0.7
	filenameWeight = 0.3
	rawScoreCap    = 10.0

	maxThemes     = 5
	maxTechnical  = 10
	maxImpacts    = 5
	maxChallenges = 5
	maxSolutions  = 5

	// Challenge/solution lines shorter than this are noise.
	minTriggerLineLen = 20

	summaryMaxLen      = 300
	complexityTextNorm = 5000.0
	complexityTechNorm = 10.0
)

// Classifier assigns a development phase to a document and extracts
// its categorical tags. Classification never fails: empty or oversized
// input yields a best-effort record with status analyzed.
type Classifier struct {
	lib *PatternLibrary
	gen core.Generator // optional summarizer, nil disables
}

func NewClassifier(lib *PatternLibrary, gen core.Generator) *Classifier {
	return &Classifier{lib: lib, gen: gen}
}

// Classify builds a fully analyzed SourceDocument from raw text.
func (c *Classifier) Classify(ctx context.Context, text, filename string) core.SourceDocument {
	doc := core.SourceDocument{
		ID:               core.NewDocumentID(),
		Filename:         filename,
		RawText:          text,
		UploadedAt:       time.Now().UTC(),
		WordCount:        len(strings.Fields(text)),
		ProcessingStatus: core.StatusProcessing,
	}

	lower := strings.ToLower(text)
	lowerName := strings.ToLower(filename)

	scores := c.PhaseScores(lower, lowerName)
	doc.Phase = winningPhase(scores)

	doc.Themes = matchVocabularies(lower, c.lib.Themes, maxThemes)
	doc.TechnicalElements = matchVocabularies(lower, c.lib.TechnicalElements, maxTechnical)
	doc.BusinessImpacts = matchVocabularies(lower, c.lib.BusinessImpacts, maxImpacts)
	doc.Challenges = extractTriggerLines(text, c.lib.ChallengeTriggers, maxChallenges)
	doc.Solutions = extractTriggerLines(text, c.lib.SolutionTriggers, maxSolutions)
	doc.ComplexityScore = c.complexity(lower, len(doc.TechnicalElements))
	doc.ContentSummary = c.summarize(ctx, text)

	doc.ProcessingStatus = core.StatusAnalyzed
	return doc
}

// PhaseScores returns the normalized score per phase. The four values
// sum to 1, or are all 0 when no pattern matches anywhere.
func (c *Classifier) PhaseScores(lowerText, lowerFilename string) map[core.Phase]float64 {
	raw := make(map[core.Phase]float64, 4)
	var total float64

	for phase, keywords := range c.lib.PhasePatterns {
		var textHits, nameHits float64
		for _, kw := range keywords {
			textHits += float64(strings.Count(lowerText, kw))
			nameHits += float64(strings.Count(lowerFilename, kw))
		}
		score := textWeight*textHits + filenameWeight*nameHits
		if score > rawScoreCap {
			score = rawScoreCap
		}
		raw[phase] = score
		total += score
	}

	if total == 0 {
		return raw
	}
	for phase := range raw {
		raw[phase] /= total
	}
	return raw
}

// winningPhase picks the highest-scoring phase; ties go to the first
// phase in canonical order among the maximal scores.
func winningPhase(scores map[core.Phase]float64) core.Phase {
	best := core.PhasePlanning
	bestScore := -1.0
	for _, phase := range core.PhaseOrder() {
		if scores[phase] > bestScore {
			best = phase
			bestScore = scores[phase]
		}
	}
	return best
}

// matchVocabularies returns category names whose keyword set matches
// the text, first-encountered order, capped.
func matchVocabularies(lowerText string, vocabs []Vocabulary, limit int) []string {
	var out []string
	for _, v := range vocabs {
		if len(out) >= limit {
			break
		}
		for _, kw := range v.Keywords {
			if strings.Contains(lowerText, kw) {
				out = append(out, v.Name)
				break
			}
		}
	}
	return out
}

// extractTriggerLines collects whole lines that contain a trigger word
// and carry enough text to stand alone.
func extractTriggerLines(text string, triggers []string, limit int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if len(out) >= limit {
			break
		}
		trimmed := strings.TrimSpace(line)
		if len(trimmed) <= minTriggerLineLen {
			continue
		}
		lower := strings.ToLower(trimmed)
		for _, trigger := range triggers {
			if strings.Contains(lower, trigger) {
				out = append(out, trimmed)
				break
			}
		}
	}
	return out
}

// complexity is the mean of three bounded sub-scores: technical
// breadth, text length and depth-indicator coverage.
func (c *Classifier) complexity(lowerText string, techCount int) float64 {
	techScore := float64(techCount) / complexityTechNorm
	if techScore > 1 {
		techScore = 1
	}

	lenScore := float64(len(lowerText)) / complexityTextNorm
	if lenScore > 1 {
		lenScore = 1
	}

	var depthHits int
	for _, term := range c.lib.DepthIndicators {
		if strings.Contains(lowerText, term) {
			depthHits++
		}
	}
	depthScore := float64(depthHits) / float64(len(c.lib.DepthIndicators))

	return (techScore + lenScore + depthScore) / 3
}

// summarize asks the generation service for a short summary and falls
// back to the leading lines of the document when the call fails.
func (c *Classifier) summarize(ctx context.Context, text string) string {
	if c.gen != nil {
		prompt := fmt.Sprintf(
			"Summarize this development journal entry in two sentences. Focus on what was done and why it mattered.\n\n%s",
			truncate(text, 4000),
		)
		res, err := c.gen.Generate(ctx, prompt, core.GenerateOptions{Temperature: 0.3, MaxTokens: 150})
		if err == nil && strings.TrimSpace(res.Text) != "" {
			return strings.TrimSpace(res.Text)
		}
		if err != nil {
			log.FromCtx(ctx).Warn().Err(err).Msg("summary generation failed, using fallback")
		}
	}
	return FallbackSummary(text)
}

// FallbackSummary is the deterministic degradation path: the first
// three non-heading, non-empty lines, truncated to 300 characters.
func FallbackSummary(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		lines = append(lines, trimmed)
		if len(lines) == 3 {
			break
		}
	}
	return truncate(strings.Join(lines, " "), summaryMaxLen)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	// Back off to a rune boundary so multibyte text never ends
	// mid-sequence.
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
