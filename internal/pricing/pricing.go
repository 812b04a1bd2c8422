// Package pricing computes the amount due for a booking from a field's day and
// night rates.
package pricing

import (
	"math"

	"github.com/terrainbook/booking-api/internal/domain"
)

// Config is the pricing input that does not belong to a field.
type Config struct {
	NightStart domain.TimeOfDay
}

func DefaultConfig() Config {
	return Config{NightStart: domain.MustParseTimeOfDay(domain.DefaultNightStart)}
}

// Line is one priced segment of a booking.
type Line struct {
	Start  domain.TimeOfDay `json:"start"`
	Hours  float64          `json:"hours"`
	Rate   float64          `json:"rate"`
	Night  bool             `json:"night"`
	Amount float64          `json:"amount"`
}

type Quote struct {
	Total float64 `json:"total"`
	Lines []Line  `json:"lines"`
}

// RateAt returns the hourly (or per-session) rate applying at t. Fields
// without a night price bill the day price at every hour.
func RateAt(field domain.Field, t domain.TimeOfDay, cfg Config) (float64, bool) {
	if t >= cfg.NightStart && field.HasNightPrice() {
		return *field.NightPrice, true
	}
	return field.DayPrice, false
}

// ComputePrice returns the non-negative price of a booking.
func ComputePrice(field domain.Field, start domain.TimeOfDay, durationHours float64, cfg Config) float64 {
	return Compute(field, start, durationHours, cfg).Total
}

// Compute prices a booking and keeps the breakdown. Football is one flat
// lookup at the session start. Racket sports bill every whole hour at its own
// start, plus a pro-rata remainder at the rate of its start.
func Compute(field domain.Field, start domain.TimeOfDay, durationHours float64, cfg Config) Quote {
	var q Quote

	if field.Sport.FixedDuration() {
		rate, night := RateAt(field, start, cfg)
		q.add(Line{Start: start, Hours: durationHours, Rate: rate, Night: night, Amount: rate})
		return q
	}

	if durationHours <= 0 {
		return q
	}

	whole := int(math.Floor(durationHours))
	t := start
	for i := 0; i < whole; i++ {
		rate, night := RateAt(field, t, cfg)
		q.add(Line{Start: t, Hours: 1, Rate: rate, Night: night, Amount: rate})
		t = t.Add(60)
	}

	if frac := durationHours - float64(whole); frac > 0 {
		rate, night := RateAt(field, t, cfg)
		q.add(Line{Start: t, Hours: frac, Rate: rate, Night: night, Amount: rate * frac})
	}

	return q
}

func (q *Quote) add(l Line) {
	l.Amount = math.Max(0, l.Amount)
	q.Lines = append(q.Lines, l)
	q.Total += l.Amount
}
