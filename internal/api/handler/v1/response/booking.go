package response

import "github.com/terrainbook/booking-api/internal/domain"

// ReservationCreated is returned to the customer who booked. The token is
// only ever shown here and in the confirmation message.
type ReservationCreated struct {
	domain.Reservation
	Token     string `json:"token,omitempty"`
	ExpiresIn string `json:"expires_in,omitempty"`
}

type SweepResult struct {
	Cancelled int `json:"cancelled"`
}

type NightStart struct {
	NightStart domain.TimeOfDay `json:"night_start"`
}

type Availability struct {
	Available bool   `json:"available"`
	Kind      string `json:"kind,omitempty"`
	Reason    string `json:"reason,omitempty"`
}
