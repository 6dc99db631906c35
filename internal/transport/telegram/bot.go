package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/inbucket/html2text"
	tele "gopkg.in/telebot.v3"

	"github.com/sandevgo/chronicle/internal/config"
	"github.com/sandevgo/chronicle/internal/core"
	"github.com/sandevgo/chronicle/internal/service/publisher"
	"github.com/sandevgo/chronicle/pkg/log"
)

const baseContextKey = "base_context"

// maxUploadBytes guards against absurdly large journal files; the
// classifier itself never fails on size.
const maxUploadBytes = 1 << 20

type Bot struct {
	bot     *tele.Bot
	cfg     *config.TelegramConfig
	pub     *publisher.Publisher
	router  core.CmdRouter
	sender  *sender
	ownerID int64

	mu       sync.Mutex
	sessions map[int64]string // chat id -> active session id
}

func NewBot(
	ctx context.Context,
	cfg *config.TelegramConfig,
	pub *publisher.Publisher,
	router core.CmdRouter,
) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	bot := &Bot{
		bot:      b,
		cfg:      cfg,
		pub:      pub,
		router:   router,
		sender:   newSender(b),
		ownerID:  cfg.OwnerID,
		sessions: make(map[int64]string),
	}

	// Use context from Signal with logger
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			c.Set(baseContextKey, ctx)
			return next(c)
		}
	})

	// Middleware: Only allow the owner
	b.Use(func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if c.Sender().ID != bot.ownerID {
				return nil // Ignore unauthorized users
			}
			return next(c)
		}
	})

	b.Handle(tele.OnText, bot.handleText)
	b.Handle(tele.OnDocument, bot.handleDocument)
	b.Handle(&btnGenerate, bot.handleGenerate)
	b.Handle(&btnApprove, bot.handleApprove)
	b.Handle(&btnRegenerate, bot.handleRegenerate)
	b.Handle(&btnTonePick, bot.handleTonePick)
	b.Handle(&btnTone, bot.handleTone)

	return bot, nil
}

func (b *Bot) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Msg("starting telegram bot")
	b.bot.Start()
	return nil
}

func (b *Bot) Shutdown(ctx context.Context) error {
	b.bot.Stop()
	return nil
}

var (
	selector      = &tele.ReplyMarkup{}
	btnGenerate   = selector.Data("✍️ Generate post", "generate", "")
	btnApprove    = selector.Data("👍 Approve", "approve", "")
	btnRegenerate = selector.Data("🔁 Regenerate", "regenerate", "")
	btnTonePick   = selector.Data("🎙 Tone", "tones", "")
	btnTone       = selector.Data("", "tone", "")
)

// toneByKey keeps callback payloads short; Telegram caps callback data
// at 64 bytes and the full tone names would not fit next to a ULID.
var toneByKey = map[string]string{
	"build":  "Behind-the-Build",
	"psr":    "Problem → Solution → Result",
	"broke":  "What Broke",
	"proud":  "Finished & Proud",
	"lesson": "Mini Lesson",
}

// ensureSession resolves the chat's active session, starting a new one
// when none exists or the old one expired.
func (b *Bot) ensureSession(ctx context.Context, chatID int64) (string, error) {
	b.mu.Lock()
	sessionID, ok := b.sessions[chatID]
	b.mu.Unlock()

	if ok {
		rec, err := b.pub.Session(ctx, chatID, sessionID)
		if err == nil && !rec.Expired(time.Now().UTC()) {
			return sessionID, nil
		}
		if err != nil && !errors.Is(err, core.ErrSessionNotFound) {
			return "", err
		}
	}

	rec, err := b.pub.StartSession(ctx, chatID)
	if err != nil {
		return "", err
	}

	b.mu.Lock()
	b.sessions[chatID] = rec.SessionID
	b.mu.Unlock()
	return rec.SessionID, nil
}

func (b *Bot) handleText(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx)
	chatID := c.Chat().ID

	sessionID, err := b.ensureSession(ctx, chatID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to resolve session")
		return c.Send(fmt.Sprintf("error: %v", err))
	}

	if reply, handled := b.router.Execute(ctx, chatID, sessionID, c.Text()); handled {
		return b.sender.sendMarkdown(ctx, c.Chat(), reply, false)
	}

	// Plain text goes into the interaction log so later context
	// selection can draw on it.
	err = b.pub.RecordInteraction(ctx, chatID, sessionID, core.InteractionRecord{
		UserMessage: c.Text(),
		MessageType: core.MsgText,
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to record interaction")
	}

	return c.Send("Send me a journal document, or see /help for commands.")
}

func (b *Bot) handleDocument(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx)
	chatID := c.Chat().ID

	sessionID, err := b.ensureSession(ctx, chatID)
	if err != nil {
		return c.Send(fmt.Sprintf("error: %v", err))
	}

	_ = c.Notify(tele.Typing)

	docFile := c.Message().Document
	text, err := b.downloadText(docFile)
	if err != nil {
		logger.Error().Err(err).Str("filename", docFile.FileName).Msg("failed to download document")
		return c.Send(fmt.Sprintf("could not read %s: %v", docFile.FileName, err))
	}

	doc, err := b.pub.AddDocument(ctx, chatID, sessionID, docFile.FileName, text)
	if err != nil {
		if errors.Is(err, core.ErrSessionExpired) {
			// Expiry is advisory and only surfaces here; a fresh
			// session picks up the next upload.
			b.mu.Lock()
			delete(b.sessions, chatID)
			b.mu.Unlock()
			return c.Send("This batch expired. Send the document again to start a new one.")
		}
		logger.Error().Err(err).Msg("failed to add document")
		return c.Send(fmt.Sprintf("error: %v", err))
	}

	markup := &tele.ReplyMarkup{}
	gen := markup.Data(btnGenerate.Text, btnGenerate.Unique, doc.ID)
	markup.Inline(markup.Row(gen))

	summary := fmt.Sprintf(
		"**%s** analyzed\n\nPhase: `%s`\nThemes: %s\nComplexity: %.2f\n\n%s",
		doc.Filename, doc.Phase, strings.Join(doc.Themes, ", "), doc.ComplexityScore, doc.ContentSummary,
	)
	return b.sender.sendMarkdownWithMarkup(ctx, c.Chat(), summary, markup)
}

func (b *Bot) handleGenerate(c tele.Context) error {
	return b.generate(c, c.Data(), "", false)
}

func (b *Bot) handleRegenerate(c tele.Context) error {
	return b.generate(c, c.Data(), "", true)
}

// handleTonePick swaps the post's buttons for the tone options.
func (b *Bot) handleTonePick(c tele.Context) error {
	documentID := c.Data()

	markup := &tele.ReplyMarkup{}
	var row tele.Row
	for _, key := range []string{"build", "psr", "broke", "proud", "lesson"} {
		row = append(row, markup.Data(toneByKey[key], btnTone.Unique, documentID+"|"+key))
	}
	markup.Inline(markup.Row(row[:3]...), markup.Row(row[3:]...))

	_ = c.Respond(&tele.CallbackResponse{})
	return c.Edit(markup)
}

// handleTone records the explicit tone choice and regenerates with it.
func (b *Bot) handleTone(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	chatID := c.Chat().ID

	documentID, key, ok := strings.Cut(c.Data(), "|")
	tone := toneByKey[key]
	if !ok || tone == "" {
		return c.Respond(&tele.CallbackResponse{Text: "unknown tone"})
	}

	sessionID, err := b.ensureSession(ctx, chatID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: err.Error()})
	}

	err = b.pub.RecordInteraction(ctx, chatID, sessionID, core.InteractionRecord{
		UserMessage: "selected tone " + tone,
		MessageType: core.MsgToneSelection,
		Context:     map[string]string{"document_id": documentID, "tone": tone},
	})
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to record tone selection")
	}

	return b.generate(c, documentID, tone, true)
}

func (b *Bot) generate(c tele.Context, documentID, tone string, regeneration bool) error {
	ctx := c.Get(baseContextKey).(context.Context)
	logger := log.FromCtx(ctx)
	chatID := c.Chat().ID

	sessionID, err := b.ensureSession(ctx, chatID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: err.Error()})
	}

	_ = c.Respond(&tele.CallbackResponse{Text: "Generating…"})
	_ = c.Notify(tele.Typing)

	post, err := b.pub.GeneratePost(ctx, chatID, sessionID, documentID, tone, regeneration)
	if err != nil {
		logger.Error().Err(err).Str("document_id", documentID).Msg("generation failed")
		return c.Send(fmt.Sprintf("error: %v", err))
	}

	markup := &tele.ReplyMarkup{}
	approve := markup.Data(btnApprove.Text, btnApprove.Unique, documentID)
	regen := markup.Data(btnRegenerate.Text, btnRegenerate.Unique, documentID)
	tones := markup.Data(btnTonePick.Text, btnTonePick.Unique, documentID)
	markup.Inline(markup.Row(approve, regen, tones))

	return b.sender.sendMarkdownWithMarkup(ctx, c.Chat(), post, markup)
}

func (b *Bot) handleApprove(c tele.Context) error {
	ctx := c.Get(baseContextKey).(context.Context)
	chatID := c.Chat().ID
	documentID := c.Data()

	sessionID, err := b.ensureSession(ctx, chatID)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: err.Error()})
	}

	err = b.pub.RecordInteraction(ctx, chatID, sessionID, core.InteractionRecord{
		UserMessage:       "approved post",
		MessageType:       core.MsgPostApproval,
		SatisfactionScore: ptr(1.0),
		Context:           map[string]string{"document_id": documentID},
	})
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Msg("failed to record approval")
	}
	return c.Respond(&tele.CallbackResponse{Text: "Approved 🎉"})
}

func (b *Bot) downloadText(doc *tele.Document) (string, error) {
	if doc.FileSize > maxUploadBytes {
		return "", fmt.Errorf("file too large: %d bytes", doc.FileSize)
	}
	rc, err := b.bot.File(&doc.File)
	if err != nil {
		return "", fmt.Errorf("fetch file: %w", err)
	}
	defer rc.Close()

	limited := io.LimitReader(rc, maxUploadBytes)

	// Exported journals often arrive as HTML; strip the markup so the
	// classifier sees plain text.
	ext := strings.ToLower(filepath.Ext(doc.FileName))
	if ext == ".html" || ext == ".htm" {
		text, err := html2text.FromReader(limited, html2text.Options{
			OmitLinks:    true,
			PrettyTables: false,
		})
		if err != nil {
			return "", fmt.Errorf("convert html: %w", err)
		}
		return text, nil
	}

	data, err := io.ReadAll(limited)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

func ptr(f float64) *float64 {
	return &f
}
