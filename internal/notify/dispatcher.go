package notify

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/metrics"
)

const defaultSendTimeout = 10 * time.Second

// Sink delivers reservation events to one channel.
type Sink interface {
	Name() string
	Send(ctx context.Context, ev domain.ReservationEvent) error
}

// Dispatcher fans events out to its sinks in the background. Delivery
// failures are logged and counted, never returned to the caller.
type Dispatcher struct {
	sinks   []Sink
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, sinks ...Sink) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}

	d := &Dispatcher{timeout: timeout}
	for _, s := range sinks {
		if s != nil {
			d.sinks = append(d.sinks, s)
		}
	}

	return d
}

func (d *Dispatcher) Notify(ctx context.Context, ev domain.ReservationEvent) {
	// the request that produced the event may finish before delivery
	base := context.WithoutCancel(ctx)

	for _, sink := range d.sinks {
		d.wg.Add(1)
		go func(sink Sink) {
			defer d.wg.Done()

			sendCtx, cancel := context.WithTimeout(base, d.timeout)
			defer cancel()

			if err := sink.Send(sendCtx, ev); err != nil {
				metrics.NotificationFailures.WithLabelValues(sink.Name()).Inc()
				zap.L().Error("reservation notification failed",
					zap.String("channel", sink.Name()),
					zap.String("event", string(ev.Type)),
					zap.Uint("reservation_id", ev.Reservation.ID),
					zap.Error(err))
			}
		}(sink)
	}
}

// Wait blocks until every pending delivery has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
