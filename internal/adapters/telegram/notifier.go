package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/selivandex/rally-radar/internal/adapters/config"
	"github.com/selivandex/rally-radar/pkg/logger"
	"github.com/selivandex/rally-radar/pkg/models"
	"github.com/selivandex/rally-radar/pkg/templates"
)

// Sender is the part of the Bot API the notifier needs
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts new predictions and backtest outcomes to one chat
type Notifier struct {
	api       Sender
	chatID    int64
	templates templates.Renderer
	log       *zap.Logger
}

// NewNotifier connects to the Bot API with the configured token
func NewNotifier(cfg config.TelegramConfig) (*Notifier, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	bot.Debug = false

	tmpl, err := templates.Builtin(templates.SetTelegram)
	if err != nil {
		return nil, err
	}

	logger.Info("telegram notifier initialized",
		zap.String("bot_username", bot.Self.UserName),
	)

	return NewNotifierWithSender(bot, cfg.ChatID, tmpl), nil
}

// NewNotifierWithSender builds a notifier over an existing sender
func NewNotifierWithSender(api Sender, chatID int64, tmpl templates.Renderer) *Notifier {
	return &Notifier{
		api:       api,
		chatID:    chatID,
		templates: tmpl,
		log:       logger.Named("telegram"),
	}
}

// Name returns sink name
func (n *Notifier) Name() string {
	return "telegram"
}

// NotifyPrediction announces a newly stored prediction
func (n *Notifier) NotifyPrediction(_ context.Context, rec *models.PredictionRecord) error {
	msg, err := n.templates.ExecuteTemplate("prediction_created.tmpl", rec)
	if err != nil {
		return err
	}
	return n.send(msg)
}

// RecordOutcome announces an evaluated prediction
func (n *Notifier) RecordOutcome(_ context.Context, ev models.OutcomeEvent) error {
	msg, err := n.templates.ExecuteTemplate("prediction_outcome.tmpl", ev)
	if err != nil {
		return err
	}
	return n.send(msg)
}

func (n *Notifier) send(text string) error {
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.DisableWebPagePreview = true

	if _, err := n.api.Send(msg); err != nil {
		n.log.Error("failed to send telegram message",
			zap.Int64("chat_id", n.chatID),
			zap.Error(err),
		)
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
