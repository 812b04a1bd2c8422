package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/terrainbook/booking-api/internal/domain"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes every event on a topic exchange, routed by event
// type. The mail worker consumes reservation.created to send the
// confirmation link.
type AMQPPublisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	baseURL  string
}

func NewAMQPPublisher(url, exchange, baseURL string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err = ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, baseURL: baseURL}, nil
}

type eventMessage struct {
	Type          domain.EventType         `json:"type"`
	ReservationID uint                     `json:"reservation_id"`
	FieldID       uint                     `json:"field_id"`
	FieldName     string                   `json:"field_name,omitempty"`
	Date          string                   `json:"date"`
	Start         domain.TimeOfDay         `json:"start"`
	End           domain.TimeOfDay         `json:"end"`
	Price         float64                  `json:"price"`
	Status        domain.ReservationStatus `json:"status"`
	Customer      domain.Customer          `json:"customer"`
	Token         string                   `json:"token,omitempty"`
	ConfirmURL    string                   `json:"confirm_url,omitempty"`
	OccurredAt    time.Time                `json:"occurred_at"`
}

func (p *AMQPPublisher) message(ev domain.ReservationEvent) eventMessage {
	res := ev.Reservation
	msg := eventMessage{
		Type:          ev.Type,
		ReservationID: res.ID,
		FieldID:       res.FieldID,
		FieldName:     ev.FieldName,
		Date:          res.Date.Format(domain.DateLayout),
		Start:         res.Start,
		End:           res.End(),
		Price:         res.Price,
		Status:        res.Status,
		Customer:      res.Customer,
		Token:         ev.Token,
		OccurredAt:    ev.OccurredAt,
	}
	if ev.Token != "" && p.baseURL != "" {
		msg.ConfirmURL = strings.TrimRight(p.baseURL, "/") + "/confirm?token=" + url.QueryEscape(ev.Token)
	}
	return msg
}

func (p *AMQPPublisher) Name() string {
	return "amqp"
}

func (p *AMQPPublisher) Send(ctx context.Context, ev domain.ReservationEvent) error {
	b, err := json.Marshal(p.message(ev))
	if err != nil {
		return err
	}

	return p.ch.PublishWithContext(ctx, p.exchange, string(ev.Type), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.OccurredAt,
		Body:         b,
	})
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
