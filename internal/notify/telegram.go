package notify

import (
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/dmelero/compra/internal/reconcile"
)

// Telegram pushes change summaries to a chat. Send failures are logged and
// dropped; a notification is never worth blocking the poll loop over.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
	log    *slog.Logger
}

// NewTelegram creates a Telegram notifier for the given bot token and chat.
func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Telegram{bot: bot, chatID: chatID, log: log}, nil
}

// ExternalChange sends the diff summary as one plain-text message.
func (t *Telegram) ExternalChange(change reconcile.Staged) {
	var b strings.Builder
	b.WriteString("La lista ha cambiado:\n")
	for _, rec := range change.Diff.Added {
		fmt.Fprintf(&b, "+ fila %d: %s\n", rec.RowIndex, label(rec))
	}
	for _, rec := range change.Diff.Deleted {
		fmt.Fprintf(&b, "- fila %d: %s\n", rec.RowIndex, label(rec))
	}
	for _, edit := range change.Diff.Edited {
		fmt.Fprintf(&b, "~ fila %d: %s\n", edit.RowIndex, label(edit.Record))
		for _, ch := range edit.Changes {
			fmt.Fprintf(&b, "    %s: %q → %q\n", ch.Field, ch.From, ch.To)
		}
	}
	msg := tgbotapi.NewMessage(t.chatID, b.String())
	if _, err := t.bot.Send(msg); err != nil {
		t.log.Error("telegram notification failed", "error", err)
	}
}

// Fanout forwards each change to every notifier.
type Fanout []reconcile.Notifier

// ExternalChange implements reconcile.Notifier.
func (f Fanout) ExternalChange(change reconcile.Staged) {
	for _, n := range f {
		n.ExternalChange(change)
	}
}
