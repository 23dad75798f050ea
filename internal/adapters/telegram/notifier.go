package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/andrewsem/factwatch/internal/adapters/config"
	"github.com/andrewsem/factwatch/pkg/logger"
	"github.com/andrewsem/factwatch/pkg/models"
)

// Notifier pushes crisis alerts to a configured chat.
type Notifier struct {
	api *tgbotapi.BotAPI
	cfg *config.TelegramConfig
}

// NewNotifier creates the Telegram notifier.
func NewNotifier(cfg *config.TelegramConfig) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	bot.Debug = false

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
	)

	return &Notifier{api: bot, cfg: cfg}, nil
}

// SendCrisisAlert pushes a crisis notification for one entity. Only HIGH
// tier alerts are delivered; lower tiers stay in the snapshot.
func (n *Notifier) SendCrisisAlert(entityName string, alert models.CrisisAlert) error {
	if !n.cfg.AlertOnCrisis || alert.RiskLevel != models.CrisisHigh {
		return nil
	}

	text := fmt.Sprintf(
		"🚨 *Crisis alert: %s*\n\n%s\n\nRisk score: %d\nMentions today: %d (%d negative)\nFake news items: %d",
		escapeMarkdown(entityName),
		escapeMarkdown(alert.Message),
		alert.RiskScore,
		alert.MentionsToday,
		alert.NegativeToday,
		alert.FakeNewsCount,
	)

	msg := tgbotapi.NewMessage(n.cfg.ChatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown

	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send crisis alert: %w", err)
	}

	logger.Info("crisis alert delivered",
		zap.String("entity", entityName),
		zap.Int("risk_score", alert.RiskScore),
	)
	return nil
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
