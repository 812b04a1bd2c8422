package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/terrainbook/booking-api/internal/domain"
)

// Sender is the part of *tgbotapi.BotAPI used for alerts.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts a short alert to the staff chat. It never includes
// the confirmation token.
type TelegramNotifier struct {
	bot    Sender
	chatID int64
}

func NewTelegramBot(token string) (*tgbotapi.BotAPI, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return bot, nil
}

func NewTelegramNotifier(bot Sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

func (n *TelegramNotifier) Name() string {
	return "telegram"
}

func (n *TelegramNotifier) Send(_ context.Context, ev domain.ReservationEvent) error {
	msg := tgbotapi.NewMessage(n.chatID, alertText(ev))
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

var alertTitles = map[domain.EventType]string{
	domain.EventReservationCreated:   "New reservation",
	domain.EventReservationConfirmed: "Reservation confirmed",
	domain.EventReservationCancelled: "Reservation cancelled",
	domain.EventReservationExpired:   "Reservation expired",
}

func alertText(ev domain.ReservationEvent) string {
	res := ev.Reservation

	title, ok := alertTitles[ev.Type]
	if !ok {
		title = string(ev.Type)
	}

	field := ev.FieldName
	if field == "" {
		field = fmt.Sprintf("field #%d", res.FieldID)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s #%d\n", title, res.ID)
	fmt.Fprintf(&b, "%s, %s %s-%s\n", field, res.Date.Format(domain.DateLayout), res.Start, res.End())
	if res.Customer.Name != "" {
		fmt.Fprintf(&b, "%s %s\n", res.Customer.Name, res.Customer.Phone)
	}
	fmt.Fprintf(&b, "%.2f, %s", res.Price, res.Status)
	return b.String()
}
