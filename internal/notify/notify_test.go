package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/metrics"
)

func event(t domain.EventType) domain.ReservationEvent {
	return domain.ReservationEvent{
		Type: t,
		Reservation: domain.Reservation{
			ID:            7,
			FieldID:       2,
			Date:          time.Date(2024, time.June, 4, 0, 0, 0, 0, time.UTC),
			Start:         domain.MustParseTimeOfDay("18:00"),
			DurationHours: 1.5,
			Price:         50,
			Status:        domain.StatusPending,
			Customer:      domain.Customer{Name: "Ana", Phone: "0600000000", Email: "ana@example.com"},
		},
		FieldName:  "Five pitch",
		Token:      "secret-token",
		OccurredAt: time.Date(2024, time.June, 3, 12, 0, 0, 0, time.UTC),
	}
}

type recordingSink struct {
	name string
	err  error

	mu     sync.Mutex
	events []domain.ReservationEvent
	ctxErr error
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Send(ctx context.Context, ev domain.ReservationEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	s.ctxErr = ctx.Err()
	return s.err
}

func TestDispatcher_FanOutSurvivesCancelledRequest(t *testing.T) {
	ok := &recordingSink{name: "ok"}
	failing := &recordingSink{name: "failing-test-sink", err: errors.New("down")}
	d := NewDispatcher(time.Second, ok, nil, failing)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	before := testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues("failing-test-sink"))

	d.Notify(ctx, event(domain.EventReservationCreated))
	d.Wait()

	require.Len(t, ok.events, 1)
	assert.NoError(t, ok.ctxErr)
	require.Len(t, failing.events, 1)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.NotificationFailures.WithLabelValues("failing-test-sink")))
}

type fakeChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return nil
}

func (c *fakeChannel) Close() error { return nil }

func TestAMQPPublisher_Send(t *testing.T) {
	ch := &fakeChannel{}
	p := &AMQPPublisher{ch: ch, exchange: "booking.exchange", baseURL: "https://book.example.com/"}

	require.NoError(t, p.Send(context.Background(), event(domain.EventReservationCreated)))

	assert.Equal(t, "booking.exchange", ch.exchange)
	assert.Equal(t, "reservation.created", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)

	var body map[string]any
	require.NoError(t, json.Unmarshal(ch.msg.Body, &body))
	assert.Equal(t, "secret-token", body["token"])
	assert.Equal(t, "https://book.example.com/confirm?token=secret-token", body["confirm_url"])
	assert.Equal(t, "2024-06-04", body["date"])
	assert.Equal(t, "19:30", body["end"])
}

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	s.sent = append(s.sent, c)
	return tgbotapi.Message{}, s.err
}

func TestTelegramNotifier(t *testing.T) {
	bot := &fakeSender{}
	n := NewTelegramNotifier(bot, 42)

	require.NoError(t, n.Send(context.Background(), event(domain.EventReservationCreated)))
	require.Len(t, bot.sent, 1)

	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "New reservation #7")
	assert.Contains(t, msg.Text, "Five pitch, 2024-06-04 18:00-19:30")
	assert.NotContains(t, msg.Text, "secret-token")

	bot.err = errors.New("blocked by user")
	assert.Error(t, n.Send(context.Background(), event(domain.EventReservationExpired)))
}
