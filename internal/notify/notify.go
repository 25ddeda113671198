// Package notify delivers batch completion summaries to the user.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/jonathan/resumexpert/internal/observability"
	"github.com/jonathan/resumexpert/internal/types"
)

// topN bounds how many candidates a summary lists.
const topN = 5

// Summary describes a finished batch.
type Summary struct {
	Job       types.Job
	Completed int
	Failed    int
	Top       []types.RankingResult
}

// Notifier receives a summary once a batch completes.
type Notifier interface {
	BatchCompleted(ctx context.Context, s Summary) error
}

// Multi fans a summary out to several notifiers and returns the first error.
type Multi []Notifier

func (m Multi) BatchCompleted(ctx context.Context, s Summary) error {
	var first error
	for _, n := range m {
		if err := n.BatchCompleted(ctx, s); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// LogNotifier writes the summary to the structured log.
type LogNotifier struct {
	log logrus.FieldLogger
}

// NewLogNotifier creates a notifier that logs to log.
func NewLogNotifier(log logrus.FieldLogger) *LogNotifier {
	return &LogNotifier{log: observability.Component(log, "notify")}
}

func (n *LogNotifier) BatchCompleted(_ context.Context, s Summary) error {
	fields := logrus.Fields{
		"job_id":    s.Job.ID,
		"completed": s.Completed,
		"failed":    s.Failed,
	}
	if len(s.Top) > 0 {
		fields["top_candidate"] = s.Top[0].CandidateName
		fields["top_score"] = s.Top[0].Score
	}
	n.log.WithFields(fields).Info("batch completed")
	return nil
}

// Sender is the subset of the Telegram bot API used to deliver messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts summaries to a Telegram chat.
type TelegramNotifier struct {
	bot    Sender
	chatID int64
}

// NewTelegramNotifier connects to the bot API with token.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram bot: %w", err)
	}
	return NewTelegramNotifierWithSender(bot, chatID), nil
}

// NewTelegramNotifierWithSender uses an existing sender.
func NewTelegramNotifierWithSender(bot Sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

func (t *TelegramNotifier) BatchCompleted(ctx context.Context, s Summary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, FormatSummary(s))
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// FormatSummary renders a summary as Telegram HTML.
func FormatSummary(s Summary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "✅ <b>Ranking finished: %s</b>\n", html.EscapeString(s.Job.Title))
	fmt.Fprintf(&sb, "%d ranked, %d failed\n", s.Completed, s.Failed)

	top := s.Top
	if len(top) > topN {
		top = top[:topN]
	}
	for i, r := range top {
		name := r.CandidateName
		if name == "" {
			name = r.Filename
		}
		fmt.Fprintf(&sb, "\n%d. %s: %d%% (%s)", i+1, html.EscapeString(name), r.Score, types.ScoreBand(r.Score))
	}
	return sb.String()
}
