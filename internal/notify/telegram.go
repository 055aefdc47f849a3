package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskflow/internal/model"
	"taskflow/internal/repository"
	"taskflow/internal/service"
)

// Notifier pushes reminder summaries to users over Telegram. Only users
// who linked a chat id to their account receive anything.
type Notifier struct {
	api       *tgbotapi.BotAPI
	users     *repository.UserRepository
	reminders *service.ReminderService
}

func New(token string, users *repository.UserRepository, reminders *service.ReminderService) (*Notifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] notifier authorized on account %s", api.Self.UserName)

	return &Notifier{api: api, users: users, reminders: reminders}, nil
}

// SendDailySummaries delivers a summary to every linked user. A failure
// for one user is logged and the rest continue.
func (n *Notifier) SendDailySummaries(ctx context.Context) error {
	users, err := n.users.ListWithTelegram(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := n.send(ctx, user, now); err != nil {
			log.Printf("[warn] summary for %s: %v", user.Email, err)
		}
	}
	return nil
}

// SendSummary delivers one user's summary immediately, for the on-demand
// API trigger.
func (n *Notifier) SendSummary(ctx context.Context, user model.User) error {
	return n.send(ctx, user, time.Now())
}

func (n *Notifier) send(ctx context.Context, user model.User, now time.Time) error {
	if user.TelegramChatID == nil {
		return fmt.Errorf("user %s has no linked chat", user.Email)
	}

	text, err := n.reminders.DailySummary(ctx, user, now)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(*user.TelegramChatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}
