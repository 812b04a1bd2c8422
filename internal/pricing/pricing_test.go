package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrainbook/booking-api/internal/domain"
)

func price(v float64) *float64 {
	return &v
}

func tod(s string) domain.TimeOfDay {
	return domain.MustParseTimeOfDay(s)
}

func TestComputePrice_Football(t *testing.T) {
	f := domain.Field{Sport: domain.SportFootball, DayPrice: 50, NightPrice: price(60)}
	cfg := DefaultConfig()

	tests := []struct {
		start string
		hours float64
		want  float64
	}{
		{"18:00", 1.5, 50},
		{"18:30", 1.5, 50},
		{"19:00", 1.5, 60},
		{"20:00", 1.5, 60},
		{"20:00", 3, 60},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ComputePrice(f, tod(tt.start), tt.hours, cfg), tt.start)
	}

	q := Compute(f, tod("20:00"), 1.5, cfg)
	require.Len(t, q.Lines, 1)
	assert.True(t, q.Lines[0].Night)
}

func TestComputePrice_RacketStraddlesNight(t *testing.T) {
	f := domain.Field{Sport: domain.SportTennis, DayPrice: 20, NightPrice: price(30)}
	cfg := DefaultConfig()

	// 18:00 day, 19:00 night, 20:00 half at night
	q := Compute(f, tod("18:00"), 2.5, cfg)
	require.Len(t, q.Lines, 3)
	assert.Equal(t, []float64{20, 30, 15}, []float64{q.Lines[0].Amount, q.Lines[1].Amount, q.Lines[2].Amount})
	assert.Equal(t, tod("20:00"), q.Lines[2].Start)
	assert.Equal(t, 65.0, q.Total)

	// 17:30 day, 18:30 day, remainder at 19:30 night
	assert.Equal(t, 20+20+15.0, ComputePrice(f, tod("17:30"), 2.5, cfg))
}

func TestComputePrice_NoNightPriceFallsBackToDay(t *testing.T) {
	f := domain.Field{Sport: domain.SportPadel, DayPrice: 24}
	assert.Equal(t, 36.0, ComputePrice(f, tod("21:00"), 1.5, DefaultConfig()))

	fb := domain.Field{Sport: domain.SportFootball, DayPrice: 50}
	assert.Equal(t, 50.0, ComputePrice(fb, tod("22:00"), 1.5, DefaultConfig()))
}

func TestComputePrice_CustomNightStart(t *testing.T) {
	f := domain.Field{Sport: domain.SportTennis, DayPrice: 10, NightPrice: price(12)}
	cfg := Config{NightStart: tod("18:00")}

	assert.Equal(t, 12.0, ComputePrice(f, tod("18:00"), 1, cfg))
	assert.Equal(t, 10.0, ComputePrice(f, tod("17:00"), 1, cfg))
}

func TestComputePrice_NeverNegative(t *testing.T) {
	f := domain.Field{Sport: domain.SportTennis, DayPrice: -5}
	assert.Equal(t, 0.0, ComputePrice(f, tod("10:00"), 2, DefaultConfig()))
	assert.Equal(t, 0.0, ComputePrice(f, tod("10:00"), 0, DefaultConfig()))
}
