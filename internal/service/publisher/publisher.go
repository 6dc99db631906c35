package publisher

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandevgo/chronicle/internal/analysis"
	"github.com/sandevgo/chronicle/internal/core"
	"github.com/sandevgo/chronicle/internal/relevance"
	"github.com/sandevgo/chronicle/internal/strategy"
	"github.com/sandevgo/chronicle/pkg/log"
)

// Config carries the session and worker-pool knobs.
type Config struct {
	WorkerCap          int
	MemoryThresholdPct float64
	BatchDeadline      time.Duration
	ContextTokenBudget int
}

// Publisher owns the session lifecycle: document intake, batch
// finalization, post generation and interaction logging. Each session
// is processed single-threaded; only generation calls go through the
// bounded worker pool.
type Publisher struct {
	store      core.SessionStore
	gen        core.Generator
	classifier *analysis.Classifier
	aggregator *analysis.Aggregator
	strategist *strategy.Generator
	selector   *relevance.Selector
	pool       *workerPool
	cfg        Config
}

func New(
	store core.SessionStore,
	gen core.Generator,
	classifier *analysis.Classifier,
	aggregator *analysis.Aggregator,
	strategist *strategy.Generator,
	selector *relevance.Selector,
	cfg Config,
) *Publisher {
	if cfg.WorkerCap <= 0 {
		cfg.WorkerCap = 3
	}
	if cfg.BatchDeadline <= 0 {
		cfg.BatchDeadline = 30 * time.Minute
	}
	if cfg.ContextTokenBudget <= 0 {
		cfg.ContextTokenBudget = 1500
	}
	return &Publisher{
		store:      store,
		gen:        gen,
		classifier: classifier,
		aggregator: aggregator,
		strategist: strategist,
		selector:   selector,
		pool:       newWorkerPool(cfg.WorkerCap, cfg.MemoryThresholdPct),
		cfg:        cfg,
	}
}

// StartSession opens a fresh batch for the user.
func (p *Publisher) StartSession(ctx context.Context, userID int64) (core.SessionRecord, error) {
	now := time.Now().UTC()
	rec := core.SessionRecord{
		UserID:    userID,
		SessionID: core.NewSessionID(),
		StartedAt: now,
		Deadline:  now.Add(p.cfg.BatchDeadline),
	}
	if err := p.store.Save(ctx, userID, rec.SessionID, rec); err != nil {
		return core.SessionRecord{}, fmt.Errorf("save new session: %w", err)
	}
	log.FromCtx(ctx).Info().
		Int64("user_id", userID).
		Str("session_id", rec.SessionID).
		Time("deadline", rec.Deadline).
		Msg("session started")
	return rec, nil
}

// Session loads an existing session.
func (p *Publisher) Session(ctx context.Context, userID int64, sessionID string) (core.SessionRecord, error) {
	rec, ok, err := p.store.Load(ctx, userID, sessionID)
	if err != nil {
		return core.SessionRecord{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return core.SessionRecord{}, core.ErrSessionNotFound
	}
	return rec, nil
}

// AddDocument classifies one uploaded document into the batch.
// Documents are admitted one at a time; classification is synchronous.
// Past the deadline the session admits no new documents.
func (p *Publisher) AddDocument(ctx context.Context, userID int64, sessionID, filename, text string) (core.SourceDocument, error) {
	rec, err := p.Session(ctx, userID, sessionID)
	if err != nil {
		return core.SourceDocument{}, err
	}
	if rec.Expired(time.Now().UTC()) {
		return core.SourceDocument{}, core.ErrSessionExpired
	}

	doc := p.classifier.Classify(ctx, text, filename)
	rec.Documents = append(rec.Documents, doc)

	// Changing the batch invalidates previously derived state.
	rec.Narrative = nil
	rec.Strategy = nil
	rec.Finalized = false

	rec.Interactions = append(rec.Interactions, core.InteractionRecord{
		Timestamp:      time.Now().UTC(),
		UserMessage:    fmt.Sprintf("uploaded %s", filename),
		SystemResponse: fmt.Sprintf("classified as %s", doc.Phase),
		MessageType:    core.MsgFileUpload,
		Context: map[string]string{
			"document_id": doc.ID,
			"phase":       string(doc.Phase),
			"word_count":  strconv.Itoa(doc.WordCount),
		},
	})

	if err := p.store.Save(ctx, userID, sessionID, rec); err != nil {
		return core.SourceDocument{}, fmt.Errorf("save session: %w", err)
	}

	log.FromCtx(ctx).Info().
		Str("session_id", sessionID).
		Str("document_id", doc.ID).
		Str("phase", string(doc.Phase)).
		Float64("complexity", doc.ComplexityScore).
		Msg("document classified")
	return doc, nil
}

// ReclassifyDocument replaces a document's content and re-runs
// classification. The id is kept stable.
func (p *Publisher) ReclassifyDocument(ctx context.Context, userID int64, sessionID, documentID, text string) (core.SourceDocument, error) {
	rec, err := p.Session(ctx, userID, sessionID)
	if err != nil {
		return core.SourceDocument{}, err
	}

	idx := -1
	for i, doc := range rec.Documents {
		if doc.ID == documentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.SourceDocument{}, core.ErrDocumentNotFound
	}

	doc := p.classifier.Classify(ctx, text, rec.Documents[idx].Filename)
	doc.ID = documentID
	doc.UploadedAt = rec.Documents[idx].UploadedAt
	rec.Documents[idx] = doc

	rec.Narrative = nil
	rec.Strategy = nil
	rec.Finalized = false

	if err := p.store.Save(ctx, userID, sessionID, rec); err != nil {
		return core.SourceDocument{}, fmt.Errorf("save session: %w", err)
	}
	return doc, nil
}

// Finalize closes the batch: relationships, narrative and posting
// strategy are computed in one pass and replace any prior derived
// state wholesale.
func (p *Publisher) Finalize(ctx context.Context, userID int64, sessionID string) (core.ProjectNarrative, core.PostingStrategy, error) {
	rec, err := p.Session(ctx, userID, sessionID)
	if err != nil {
		return core.ProjectNarrative{}, core.PostingStrategy{}, err
	}
	if len(rec.Documents) < 2 {
		return core.ProjectNarrative{}, core.PostingStrategy{}, core.ErrBatchNotReady
	}

	edges := analysis.RelateAll(rec.Documents)
	narrative := p.aggregator.Aggregate(ctx, rec.Documents, edges)

	plan, err := p.strategist.Sequence(rec.Documents, &narrative, nil)
	if err != nil {
		return core.ProjectNarrative{}, core.PostingStrategy{}, fmt.Errorf("sequence batch: %w", err)
	}

	rec.Narrative = &narrative
	rec.Strategy = &plan
	rec.Finalized = true

	if err := p.store.Save(ctx, userID, sessionID, rec); err != nil {
		return core.ProjectNarrative{}, core.PostingStrategy{}, fmt.Errorf("save session: %w", err)
	}

	log.FromCtx(ctx).Info().
		Str("session_id", sessionID).
		Int("documents", len(rec.Documents)).
		Int("edges", len(edges)).
		Int("estimated_posts", narrative.EstimatedPosts).
		Float64("cohesion", narrative.CohesionScore).
		Msg("batch finalized")
	return narrative, plan, nil
}

// Customize re-sequences a finalized batch. Invalid customizations
// leave the stored strategy untouched.
func (p *Publisher) Customize(ctx context.Context, userID int64, sessionID string, custom core.Customization) (core.PostingStrategy, error) {
	rec, err := p.Session(ctx, userID, sessionID)
	if err != nil {
		return core.PostingStrategy{}, err
	}
	if rec.Narrative == nil {
		return core.PostingStrategy{}, core.ErrBatchNotReady
	}

	plan, err := p.strategist.Sequence(rec.Documents, rec.Narrative, &custom)
	if err != nil {
		return core.PostingStrategy{}, err
	}

	rec.Strategy = &plan
	if err := p.store.Save(ctx, userID, sessionID, rec); err != nil {
		return core.PostingStrategy{}, fmt.Errorf("save session: %w", err)
	}
	return plan, nil
}

// SelectContext builds the bounded history slice for a pending
// request.
func (p *Publisher) SelectContext(ctx context.Context, rec core.SessionRecord, reqText string, reqType core.MessageType) core.ContextSelection {
	budget := p.cfg.ContextTokenBudget
	if prefs, ok, err := p.store.LoadPreferences(ctx, rec.UserID); err == nil && ok && prefs.ContextTokenBudget > 0 {
		budget = prefs.ContextTokenBudget
	}
	return p.selector.Select(rec.Interactions, relevance.Request{Text: reqText, Type: reqType}, budget)
}

// GeneratePost produces the content for one sequenced document,
// consulting the relevance-selected history first. The call goes
// through the worker pool: beyond the cap it queues, and above the
// memory threshold it is refused outright.
func (p *Publisher) GeneratePost(ctx context.Context, userID int64, sessionID, documentID, tone string, regeneration bool) (string, error) {
	rec, err := p.Session(ctx, userID, sessionID)
	if err != nil {
		return "", err
	}

	var doc *core.SourceDocument
	for i := range rec.Documents {
		if rec.Documents[i].ID == documentID {
			doc = &rec.Documents[i]
			break
		}
	}
	if doc == nil {
		return "", core.ErrDocumentNotFound
	}
	if tone == "" {
		tone = strategy.ToneFor(doc.Phase)
	}

	msgType := core.MsgText
	if regeneration {
		msgType = core.MsgPostRegeneration
	}
	selection := p.SelectContext(ctx, rec, doc.ContentSummary, msgType)
	prompt := buildPostPrompt(*doc, rec.Narrative, selection, tone)

	if err := p.pool.admit(); err != nil {
		return "", err
	}
	if err := p.pool.acquire(ctx); err != nil {
		return "", err
	}
	result, err := p.gen.Generate(ctx, prompt, core.GenerateOptions{Temperature: 0.7})
	p.pool.release()
	if err != nil {
		return "", fmt.Errorf("generate post: %w", err)
	}

	regenCount := 0
	if regeneration {
		regenCount = 1 + lastRegenCount(rec.Interactions, documentID)
	}
	rec.Interactions = append(rec.Interactions, core.InteractionRecord{
		Timestamp:         time.Now().UTC(),
		UserMessage:       fmt.Sprintf("generate post for %s", doc.Filename),
		SystemResponse:    result.Text,
		MessageType:       msgType,
		RegenerationCount: regenCount,
		Context: map[string]string{
			"document_id": documentID,
			"tone":        tone,
			"tokens_used": strconv.Itoa(result.TokensUsed),
		},
	})

	if err := p.store.Save(ctx, userID, sessionID, rec); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	log.FromCtx(ctx).Info().
		Str("session_id", sessionID).
		Str("document_id", documentID).
		Str("tone", tone).
		Int("tokens_used", result.TokensUsed).
		Str("finish_reason", result.FinishReason).
		Msg("post generated")
	return result.Text, nil
}

// RecordFeedback appends a satisfaction-scored interaction and updates
// the user's preference record.
func (p *Publisher) RecordFeedback(ctx context.Context, userID int64, sessionID, message string, satisfaction float64, extra map[string]string) error {
	rec, err := p.Session(ctx, userID, sessionID)
	if err != nil {
		return err
	}

	rec.Interactions = append(rec.Interactions, core.InteractionRecord{
		Timestamp:         time.Now().UTC(),
		UserMessage:       message,
		MessageType:       core.MsgFeedback,
		SatisfactionScore: &satisfaction,
		Context:           extra,
	})
	if err := p.store.Save(ctx, userID, sessionID, rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	if satisfaction > 0.7 {
		if tone := extra["tone"]; tone != "" {
			p.rememberTone(ctx, userID, tone)
		}
	}
	return nil
}

// RecordInteraction appends one plain exchange to the session log.
func (p *Publisher) RecordInteraction(ctx context.Context, userID int64, sessionID string, interaction core.InteractionRecord) error {
	rec, err := p.Session(ctx, userID, sessionID)
	if err != nil {
		return err
	}
	if interaction.Timestamp.IsZero() {
		interaction.Timestamp = time.Now().UTC()
	}
	rec.Interactions = append(rec.Interactions, interaction)
	if err := p.store.Save(ctx, userID, sessionID, rec); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (p *Publisher) rememberTone(ctx context.Context, userID int64, tone string) {
	prefs, _, err := p.store.LoadPreferences(ctx, userID)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to load preferences")
		return
	}
	for _, t := range prefs.PreferredTones {
		if t == tone {
			return
		}
	}
	prefs.PreferredTones = append(prefs.PreferredTones, tone)
	if err := p.store.SavePreferences(ctx, userID, prefs); err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("failed to save preferences")
	}
}

func lastRegenCount(interactions []core.InteractionRecord, documentID string) int {
	count := 0
	for _, it := range interactions {
		if it.MessageType == core.MsgPostRegeneration && it.Context["document_id"] == documentID {
			if it.RegenerationCount > count {
				count = it.RegenerationCount
			}
		}
	}
	return count
}

// buildPostPrompt assembles the generation prompt: document facts,
// narrative framing, then the selected history block.
func buildPostPrompt(doc core.SourceDocument, narrative *core.ProjectNarrative, selection core.ContextSelection, tone string) string {
	var sb strings.Builder
	sb.WriteString("Write a social post about this development milestone.\n")
	sb.WriteString(fmt.Sprintf("Tone: %s\n", tone))
	sb.WriteString(fmt.Sprintf("Phase: %s\n", doc.Phase))
	if len(doc.Themes) > 0 {
		sb.WriteString(fmt.Sprintf("Themes: %s\n", strings.Join(doc.Themes, ", ")))
	}
	if narrative != nil {
		sb.WriteString(fmt.Sprintf("Project theme: %s\n", narrative.ProjectTheme))
		sb.WriteString(fmt.Sprintf("Narrative arc: %s\n", narrative.NarrativeArc))
	}
	sb.WriteString("\nSource summary:\n")
	sb.WriteString(doc.ContentSummary)
	if selection.ContextBlock != "" {
		sb.WriteString("\n\n")
		sb.WriteString(selection.ContextBlock)
	}
	if selection.PreferenceSummary != "" {
		sb.WriteString("\n")
		sb.WriteString(selection.PreferenceSummary)
	}
	return sb.String()
}
