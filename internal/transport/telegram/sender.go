package telegram

import (
	"context"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/sandevgo/chronicle/pkg/conv"
	"github.com/sandevgo/chronicle/pkg/log"
	"github.com/sandevgo/chronicle/pkg/retry"
)

const maxTelegramMsgLen = 4000 // Safety margin below 4096

type sender struct {
	bot     *tele.Bot
	retrier *retry.Retrier
}

func newSender(bot *tele.Bot) *sender {
	// Retry lives here in the transport; the core never retries.
	return &sender{
		bot: bot,
		retrier: retry.NewRetrier(&retry.Config{
			MaxRetries:    3,
			BackoffFactor: 2.0,
			InitialDelay:  500 * time.Millisecond,
			MaxDelay:      5 * time.Second,
			Jitter:        100 * time.Millisecond,
		}),
	}
}

// sendMarkdown converts Markdown to Telegram HTML and sends it in
// chunks if needed.
func (s *sender) sendMarkdown(ctx context.Context, to tele.Recipient, md string, silent bool) error {
	return s.send(ctx, to, md, func(chunk string, first bool) []interface{} {
		opts := []interface{}{tele.ModeHTML}
		if silent && first {
			opts = append(opts, tele.Silent)
		}
		return opts
	})
}

// sendMarkdownWithMarkup attaches the inline keyboard to the last
// chunk only.
func (s *sender) sendMarkdownWithMarkup(ctx context.Context, to tele.Recipient, md string, markup *tele.ReplyMarkup) error {
	html := strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(md)))
	chunks := splitHTML(html, maxTelegramMsgLen)
	for i, chunk := range chunks {
		opts := []interface{}{tele.ModeHTML}
		if i == len(chunks)-1 && markup != nil {
			opts = append(opts, markup)
		}
		if err := s.sendChunk(ctx, to, chunk, i, opts); err != nil {
			return err
		}
	}
	return nil
}

func (s *sender) send(ctx context.Context, to tele.Recipient, md string, optsFor func(chunk string, first bool) []interface{}) error {
	html := strings.TrimSpace(conv.MarkdownToTelegramHTML([]byte(md)))
	for i, chunk := range splitHTML(html, maxTelegramMsgLen) {
		if err := s.sendChunk(ctx, to, chunk, i, optsFor(chunk, i == 0)); err != nil {
			return err
		}
	}
	return nil
}

func (s *sender) sendChunk(ctx context.Context, to tele.Recipient, chunk string, idx int, opts []interface{}) error {
	logger := log.FromCtx(ctx)
	err := s.retrier.Do(ctx, func() error {
		_, err := s.bot.Send(to, chunk, opts...)
		return err
	})
	if err != nil {
		logger.Error().Err(err).Int("chunk", idx).Int("len", len(chunk)).Msg("failed to send telegram chunk")
		return err
	}
	return nil
}

// splitHTML splits text into chunks respecting Telegram's limit.
// It tries to split at newlines to preserve formatting.
func splitHTML(text string, maxLen int) []string {
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	for len(text) > 0 {
		if len(text) <= maxLen {
			chunks = append(chunks, text)
			break
		}

		cut := maxLen
		// Try to find a good break point (newline) in the second half of the chunk
		if idx := strings.LastIndex(text[:maxLen], "\n"); idx > maxLen/3 {
			cut = idx
		}

		chunks = append(chunks, text[:cut])
		text = strings.TrimSpace(text[cut:])
	}
	return chunks
}
