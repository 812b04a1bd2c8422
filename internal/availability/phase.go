package availability

import (
	"github.com/terrainbook/booking-api/internal/domain"
)

// Phase is the preferred alignment of fixed-length sessions, as a residue of
// the start minute modulo the session length.
type Phase struct {
	Residue int
	Count   int
	Session int
}

// DominantPhase returns the most frequent residue of starts modulo session.
// Ties go to the residue seen first. ok is false when there is nothing to
// align with.
func DominantPhase(starts []domain.TimeOfDay, session int) (Phase, bool) {
	if session <= 0 || len(starts) == 0 {
		return Phase{}, false
	}

	counts := make(map[int]int, len(starts))
	order := make([]int, 0, len(starts))
	for _, s := range starts {
		r := residue(s, session)
		if _, seen := counts[r]; !seen {
			order = append(order, r)
		}
		counts[r]++
	}

	best := Phase{Residue: order[0], Count: counts[order[0]], Session: session}
	for _, r := range order[1:] {
		if counts[r] > best.Count {
			best.Residue = r
			best.Count = counts[r]
		}
	}

	return best, true
}

// Accepts reports whether start lands on the phase.
func (p Phase) Accepts(start domain.TimeOfDay) bool {
	return residue(start, p.Session) == p.Residue
}

// Nearest returns the aligned starts surrounding t.
func (p Phase) Nearest(t domain.TimeOfDay) (domain.TimeOfDay, domain.TimeOfDay) {
	shift := (residue(t, p.Session) - p.Residue + p.Session) % p.Session
	before := t.Add(-shift)
	return before, before.Add(p.Session)
}

func residue(t domain.TimeOfDay, session int) int {
	r := t.Minutes() % session
	if r < 0 {
		r += session
	}
	return r
}
