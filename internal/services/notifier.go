package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-telegram/bot"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/rbarroso/conjuntura-go/internal/config"
	"github.com/rbarroso/conjuntura-go/internal/logging"
	"github.com/rbarroso/conjuntura-go/internal/models"
)

// TelegramNotifier pushes generated insights to a configured Telegram chat.
// With no bot token or chat id configured it degrades to a no-op.
type TelegramNotifier struct {
	bot    *bot.Bot
	chatID int64
	caser  cases.Caser
	log    *slog.Logger
}

// NewTelegramNotifier builds the notifier; the bot is only initialized when
// a token is configured.
func NewTelegramNotifier(cfg config.TelegramConfig, stdLogger *logging.StandardLogger) *TelegramNotifier {
	var telegramBot *bot.Bot
	if cfg.BotToken != "" {
		telegramBot, _ = bot.New(cfg.BotToken)
	}
	return &TelegramNotifier{
		bot:    telegramBot,
		chatID: cfg.ChatID,
		caser:  cases.Title(language.BrazilianPortuguese),
		log:    stdLogger.WithComponent("notifier"),
	}
}

// NotifyInsights sends one message summarizing the freshly generated batch.
// Delivery failures are logged, never surfaced: notification is out-of-band
// to the pipeline.
func (n *TelegramNotifier) NotifyInsights(ctx context.Context, records []models.InsightRecord) {
	if n.bot == nil || n.chatID == 0 || len(records) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 New economic insights\n")
	for _, rec := range records {
		sb.WriteString(fmt.Sprintf("\n%s %s — %s\n%s\n",
			severityEmoji(rec.Severity),
			rec.Indicator.ShortName(),
			n.caser.String(string(rec.Type)),
			rec.Title))
	}

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: n.chatID,
		Text:   sb.String(),
	})
	if err != nil {
		n.log.Warn("failed to send telegram notification", "error", err)
		return
	}
	n.log.Info("sent insight notification", "insights", len(records))
}

func severityEmoji(severity models.InsightSeverity) string {
	switch severity {
	case models.SeverityWarning:
		return "⚠️"
	case models.SeveritySuccess:
		return "✅"
	default:
		return "ℹ️"
	}
}
