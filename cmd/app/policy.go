package app

import (
	"fmt"

	"github.com/terrainbook/booking-api/internal/availability"
	"github.com/terrainbook/booking-api/internal/config"
	"github.com/terrainbook/booking-api/internal/domain"
)

// policyFromConfig builds the opening-hour policy. Empty entries keep the
// built-in value.
func policyFromConfig(conf *config.BookingConfig) (availability.Policy, error) {
	p := availability.DefaultPolicy()
	if conf == nil {
		return p, nil
	}

	entries := []struct {
		key   string
		value string
		dst   *domain.TimeOfDay
	}{
		{"football_weekday_opening", conf.FootballWeekdayOpening, &p.FootballWeekdayOpening},
		{"football_weekend_opening", conf.FootballWeekendOpening, &p.FootballWeekendOpening},
		{"football_last_start", conf.FootballLastStart, &p.FootballLastStart},
		{"racket_first_start", conf.RacketFirstStart, &p.RacketFirstStart},
		{"racket_last_start", conf.RacketLastStart, &p.RacketLastStart},
	}
	for _, e := range entries {
		if e.value == "" {
			continue
		}
		t, err := domain.ParseTimeOfDay(e.value)
		if err != nil {
			return availability.Policy{}, fmt.Errorf("booking.%s -> %w", e.key, err)
		}
		*e.dst = t
	}

	if p.RacketLastStart.Minutes() < p.RacketFirstStart.Minutes() {
		return availability.Policy{}, fmt.Errorf("booking.racket_last_start %s is before racket_first_start %s", p.RacketLastStart, p.RacketFirstStart)
	}

	return p, nil
}
