package telegram

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"github.com/B1zn3/SearchWork-Website/internal/models"
)

const maxExperienceRunes = 300

type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Notifier posts admin alerts about new applications to a Telegram chat.
type Notifier struct {
	bot    sender
	chat   tele.Recipient
	logger *zap.Logger
}

// New creates a send-only bot. It never polls for updates.
func New(token string, chatID int64, logger *zap.Logger) (*Notifier, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:   token,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("telegram notifier initialized", zap.Int64("chat_id", chatID))

	return newNotifier(b, chatID, logger), nil
}

func newNotifier(s sender, chatID int64, logger *zap.Logger) *Notifier {
	return &Notifier{
		bot:    s,
		chat:   tele.ChatID(chatID),
		logger: logger,
	}
}

func (n *Notifier) NewApplication(ctx context.Context, app *models.Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := n.bot.Send(n.chat, FormatApplication(app), tele.ModeMarkdownV2, tele.NoPreview); err != nil {
		n.logger.Error("failed to send application alert",
			zap.Int64("application_id", app.ID),
			zap.Error(err),
		)
		return fmt.Errorf("send telegram alert: %w", err)
	}

	n.logger.Debug("application alert sent", zap.Int64("application_id", app.ID))

	return nil
}

// FormatApplication renders the alert text in MarkdownV2.
func FormatApplication(app *models.Application) string {
	var sb strings.Builder

	sb.WriteString("📨 *Новая заявка*\n\n")

	if app.JobTitle != "" {
		sb.WriteString(fmt.Sprintf("💼 *Вакансия:* %s\n", EscapeMarkdown(app.JobTitle)))
	}
	sb.WriteString(fmt.Sprintf("👤 *ФИО:* %s\n", EscapeMarkdown(app.FullName)))
	sb.WriteString(fmt.Sprintf("📧 *Email:* %s\n", EscapeMarkdown(app.Email)))
	sb.WriteString(fmt.Sprintf("📞 *Телефон:* %s\n", EscapeMarkdown(app.Phone)))

	if app.Experience != nil && *app.Experience != "" {
		sb.WriteString(fmt.Sprintf("\n📝 *Опыт:*\n%s\n", EscapeMarkdown(truncate(*app.Experience, maxExperienceRunes))))
	}

	return sb.String()
}

// EscapeMarkdown escapes special characters for Telegram MarkdownV2
func EscapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}

// _ * [ ] ( ) ~ ` > # + - = | { } . !
var markdownEscaper = strings.NewReplacer(
	"\\", "\\\\",
	"_", "\\_",
	"*", "\\*",
	"[", "\\[",
	"]", "\\]",
	"(", "\\(",
	")", "\\)",
	"~", "\\~",
	"`", "\\`",
	">", "\\>",
	"#", "\\#",
	"+", "\\+",
	"-", "\\-",
	"=", "\\=",
	"|", "\\|",
	"{", "\\{",
	"}", "\\}",
	".", "\\.",
	"!", "\\!",
)

func truncate(s string, maxRunes int) string {
	if utf8.RuneCountInString(s) <= maxRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxRunes-1]) + "…"
}
