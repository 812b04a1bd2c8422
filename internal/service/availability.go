package service

import (
	"context"
	"fmt"
	"time"

	"github.com/terrainbook/booking-api/internal/availability"
	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/pricing"
)

type SlotView struct {
	Start     domain.TimeOfDay `json:"start"`
	End       domain.TimeOfDay `json:"end"`
	Available bool             `json:"available"`
	Reason    string           `json:"reason,omitempty"`
	Price     float64          `json:"price"`
}

type SlotBoard struct {
	FieldID    uint                `json:"field_id"`
	Sport      domain.Sport        `json:"sport"`
	Date       string              `json:"date"`
	Duration   float64             `json:"duration"`
	Window     availability.Window `json:"window"`
	NightStart domain.TimeOfDay    `json:"night_start"`
	Slots      []SlotView          `json:"slots"`
}

type PriceQuote struct {
	FieldID  uint             `json:"field_id"`
	Start    domain.TimeOfDay `json:"start"`
	Duration float64          `json:"duration"`
	pricing.Quote
}

func (s *ReservationService) snapshot(ctx context.Context, fieldID uint, date time.Time) (availability.Snapshot, error) {
	reservations, err := s.repo.FindByFieldAndDate(ctx, fieldID, date)
	if err != nil {
		return availability.Snapshot{}, fmt.Errorf("s.repo.FindByFieldAndDate -> %w", err)
	}

	subs, err := s.subs.FindByField(ctx, fieldID)
	if err != nil {
		return availability.Snapshot{}, fmt.Errorf("s.subs.FindByField -> %w", err)
	}

	return availability.Snapshot{Reservations: reservations, Subscriptions: subs}, nil
}

// GenerateSlots lists the candidate starts of a field on a date.
func (s *ReservationService) GenerateSlots(ctx context.Context, fieldID uint, date time.Time) ([]domain.TimeOfDay, error) {
	field, err := s.fields.FindByID(ctx, fieldID)
	if err != nil {
		return nil, fmt.Errorf("s.fields.FindByID -> %w", err)
	}

	return s.policy.Policy().GenerateSlots(field, date), nil
}

// CheckAvailability answers from a fresh read. The answer is advisory; the
// insert transaction decides again.
func (s *ReservationService) CheckAvailability(ctx context.Context, fieldID uint, date time.Time, start domain.TimeOfDay, durationHours float64) error {
	field, err := s.fields.FindByID(ctx, fieldID)
	if err != nil {
		return fmt.Errorf("s.fields.FindByID -> %w", err)
	}

	snap, err := s.snapshot(ctx, fieldID, date)
	if err != nil {
		return err
	}

	resolver := availability.NewResolver(s.policy.Policy(), s.window)
	_, err = resolver.CheckAvailability(availability.Candidate{
		Field:         field,
		Date:          date,
		Start:         start,
		DurationHours: durationHours,
	}, snap, s.clock.Now())

	return err
}

// SlotBoard lists every start of the day with its availability and price.
func (s *ReservationService) SlotBoard(ctx context.Context, fieldID uint, date time.Time, durationHours float64) (SlotBoard, error) {
	now := s.clock.Now()

	field, err := s.fields.FindByID(ctx, fieldID)
	if err != nil {
		return SlotBoard{}, fmt.Errorf("s.fields.FindByID -> %w", err)
	}

	effective, ok := availability.EffectiveDuration(field.Sport, durationHours)
	if !ok {
		return SlotBoard{}, domain.Reject(domain.ErrInvalidSlot, "duration %gh is not offered for %s", durationHours, field.Sport)
	}

	nightStart, err := s.nightStart.NightStart(ctx)
	if err != nil {
		return SlotBoard{}, fmt.Errorf("s.nightStart.NightStart -> %w", err)
	}

	snap, err := s.snapshot(ctx, fieldID, date)
	if err != nil {
		return SlotBoard{}, err
	}

	policy := s.policy.Policy()
	resolver := availability.NewResolver(policy, s.window)
	cfg := pricing.Config{NightStart: nightStart}

	starts := policy.SlotsFor(field, date, effective)
	board := SlotBoard{
		FieldID:    field.ID,
		Sport:      field.Sport,
		Date:       date.Format(domain.DateLayout),
		Duration:   effective,
		Window:     policy.WindowFor(field, date),
		NightStart: nightStart,
		Slots:      make([]SlotView, 0, len(starts)),
	}

	for _, start := range starts {
		c := availability.Candidate{Field: field, Date: date, Start: start, DurationHours: effective}
		view := SlotView{
			Start:     start,
			End:       c.End(),
			Available: true,
			Price:     pricing.ComputePrice(field, start, effective, cfg),
		}

		switch {
		case !field.Active:
			view.Available, view.Reason = false, "field closed"
		case !start.At(date).After(now):
			view.Available, view.Reason = false, "already started"
		default:
			if err := resolver.Check(c, snap, now); err != nil {
				view.Available, view.Reason = false, domain.ReasonOf(err)
			}
		}

		board.Slots = append(board.Slots, view)
	}

	return board, nil
}

// PricePreview prices a booking without checking availability.
func (s *ReservationService) PricePreview(ctx context.Context, fieldID uint, start domain.TimeOfDay, durationHours float64) (PriceQuote, error) {
	field, err := s.fields.FindByID(ctx, fieldID)
	if err != nil {
		return PriceQuote{}, fmt.Errorf("s.fields.FindByID -> %w", err)
	}

	effective, ok := availability.EffectiveDuration(field.Sport, durationHours)
	if !ok {
		return PriceQuote{}, domain.Reject(domain.ErrInvalidSlot, "duration %gh is not offered for %s", durationHours, field.Sport)
	}

	nightStart, err := s.nightStart.NightStart(ctx)
	if err != nil {
		return PriceQuote{}, fmt.Errorf("s.nightStart.NightStart -> %w", err)
	}

	return PriceQuote{
		FieldID:  field.ID,
		Start:    start,
		Duration: effective,
		Quote:    pricing.Compute(field, start, effective, pricing.Config{NightStart: nightStart}),
	}, nil
}
