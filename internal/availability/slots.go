package availability

import (
	"time"

	"github.com/terrainbook/booking-api/internal/domain"
)

const (
	footballGridMinutes    = 30
	footballSessionMinutes = 90
	racketGridMinutes      = 60
)

// FootballSessionHours is the only bookable football duration.
const FootballSessionHours = 1.5

// RacketDurations are the selectable tennis/padel durations in hours.
var RacketDurations = []float64{1, 1.5, 2, 2.5, 3}

// Policy holds the opening-hour rules of every sport profile.
type Policy struct {
	FootballWeekdayOpening domain.TimeOfDay
	FootballWeekendOpening domain.TimeOfDay
	FootballLastStart      domain.TimeOfDay
	RacketFirstStart       domain.TimeOfDay
	RacketLastStart        domain.TimeOfDay
}

func DefaultPolicy() Policy {
	return Policy{
		FootballWeekdayOpening: domain.NewTimeOfDay(16, 0),
		FootballWeekendOpening: domain.NewTimeOfDay(10, 0),
		FootballLastStart:      domain.NewTimeOfDay(23, 30),
		RacketFirstStart:       domain.NewTimeOfDay(9, 0),
		RacketLastStart:        domain.NewTimeOfDay(23, 0),
	}
}

// Window is the operating range of a field on a date. Close is the latest
// instant a session may end; it can be past midnight, which CloseNextDay
// tells clients that only see the wall-clock form.
type Window struct {
	Open         domain.TimeOfDay `json:"open"`
	LastStart    domain.TimeOfDay `json:"last_start"`
	Close        domain.TimeOfDay `json:"close"`
	CloseNextDay bool             `json:"close_next_day"`
	Step         int              `json:"step_minutes"`
}

func (w Window) Empty() bool {
	return w.Step == 0
}

// WindowFor returns the operating window of field on date. Unknown sports get
// an empty window.
func (p Policy) WindowFor(field domain.Field, date time.Time) Window {
	switch field.Sport {
	case domain.SportFootball:
		open := p.footballOpening(field.Format, date)
		return newWindow(open, p.FootballLastStart, p.FootballLastStart.Add(footballSessionMinutes), footballGridMinutes)
	case domain.SportTennis, domain.SportPadel:
		return newWindow(p.RacketFirstStart, p.RacketLastStart, p.RacketLastStart.Add(racketGridMinutes), racketGridMinutes)
	default:
		return Window{}
	}
}

func newWindow(open, lastStart, end domain.TimeOfDay, step int) Window {
	return Window{Open: open, LastStart: lastStart, Close: end, CloseNextDay: end.NextDay(), Step: step}
}

// Six-a-side pitches open early on Saturdays only; seven/eight-a-side
// pitches keep the early opening every day.
func (p Policy) footballOpening(format domain.FootballFormat, date time.Time) domain.TimeOfDay {
	switch format {
	case domain.FormatSevenOrEightASide:
		return p.FootballWeekendOpening
	case domain.FormatSixASide:
		if date.Weekday() == time.Saturday {
			return p.FootballWeekendOpening
		}
		return p.FootballWeekdayOpening
	default:
		return p.FootballWeekdayOpening
	}
}

// GenerateSlots lists the candidate start times of field on date, in order.
func (p Policy) GenerateSlots(field domain.Field, date time.Time) []domain.TimeOfDay {
	w := p.WindowFor(field, date)
	if w.Empty() || w.Open > w.LastStart {
		return []domain.TimeOfDay{}
	}

	slots := make([]domain.TimeOfDay, 0, (w.LastStart-w.Open).Minutes()/w.Step+1)
	for t := w.Open; t <= w.LastStart; t = t.Add(w.Step) {
		slots = append(slots, t)
	}

	return slots
}

// SlotsFor keeps only the starts at which a session of the given duration
// still ends inside the operating window.
func (p Policy) SlotsFor(field domain.Field, date time.Time, durationHours float64) []domain.TimeOfDay {
	effective, ok := EffectiveDuration(field.Sport, durationHours)
	if !ok {
		return []domain.TimeOfDay{}
	}

	w := p.WindowFor(field, date)
	minutes := domain.DurationMinutes(effective)
	all := p.GenerateSlots(field, date)
	out := make([]domain.TimeOfDay, 0, len(all))
	for _, s := range all {
		if s.Add(minutes) <= w.Close {
			out = append(out, s)
		}
	}

	return out
}

// EffectiveDuration maps a requested duration to the one actually booked.
// Football is always a single 1.5h session.
func EffectiveDuration(sport domain.Sport, requested float64) (float64, bool) {
	switch sport {
	case domain.SportFootball:
		return FootballSessionHours, true
	case domain.SportTennis, domain.SportPadel:
		for _, d := range RacketDurations {
			if d == requested {
				return d, true
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

// ValidateSlot checks that start is a generated slot and that the session fits.
func (p Policy) ValidateSlot(field domain.Field, date time.Time, start domain.TimeOfDay, durationHours float64) (float64, error) {
	if !field.Sport.Valid() {
		return 0, domain.Reject(domain.ErrInvalidSlot, "field %d has no bookable sport profile", field.ID)
	}

	effective, ok := EffectiveDuration(field.Sport, durationHours)
	if !ok {
		return 0, domain.Reject(domain.ErrInvalidSlot, "duration %gh is not offered for %s", durationHours, field.Sport)
	}

	for _, s := range p.SlotsFor(field, date, effective) {
		if s == start {
			return effective, nil
		}
	}

	w := p.WindowFor(field, date)
	return 0, domain.Reject(domain.ErrInvalidSlot,
		"%s is not a bookable start for a %gh session on %s (open %s, last start %s)",
		start, effective, date.Format(domain.DateLayout), w.Open, w.LastStart)
}
