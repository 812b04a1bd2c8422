package availability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/terrainbook/booking-api/internal/domain"
)

func TestDominantPhase(t *testing.T) {
	_, ok := DominantPhase(nil, 90)
	assert.False(t, ok)

	p, ok := DominantPhase([]domain.TimeOfDay{tod("17:00")}, 90)
	assert.True(t, ok)
	assert.Equal(t, tod("17:00").Minutes()%90, p.Residue)

	// 16:00 -> 60, 17:30 -> 60, 18:00 -> 0
	p, _ = DominantPhase([]domain.TimeOfDay{tod("18:00"), tod("16:00"), tod("17:30")}, 90)
	assert.Equal(t, 60, p.Residue)
	assert.Equal(t, 2, p.Count)

	// tie: first seen wins
	p, _ = DominantPhase([]domain.TimeOfDay{tod("18:00"), tod("16:00")}, 90)
	assert.Equal(t, 0, p.Residue)
}

func TestPhase_AcceptsAndNearest(t *testing.T) {
	p, _ := DominantPhase([]domain.TimeOfDay{tod("17:00")}, 90)

	assert.True(t, p.Accepts(tod("18:30")))
	assert.True(t, p.Accepts(tod("21:30")))
	assert.False(t, p.Accepts(tod("21:00")))

	before, after := p.Nearest(tod("21:00"))
	assert.Equal(t, tod("20:00"), before)
	assert.Equal(t, tod("21:30"), after)
}
