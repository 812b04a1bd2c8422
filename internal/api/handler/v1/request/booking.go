package request

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/service"
)

var errMonthOrDates = errors.New("give either start_date and end_date, or month and year")

func validTimeOfDay(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := domain.ParseTimeOfDay(s)
	return err
}

func validDate(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	_, err := domain.ParseDate(s, time.UTC)
	return err
}

type FieldRequest struct {
	Name       string   `json:"name"`
	Sport      string   `json:"sport"`
	Format     string   `json:"format"`
	Capacity   int      `json:"capacity"`
	DayPrice   float64  `json:"day_price"`
	NightPrice *float64 `json:"night_price"`
	Active     *bool    `json:"active"`
}

func (req *FieldRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 80)),
		validation.Field(&req.Sport, validation.Required,
			validation.In(string(domain.SportFootball), string(domain.SportTennis), string(domain.SportPadel))),
		validation.Field(&req.Format, validation.In(string(domain.FormatStandard), string(domain.FormatSixASide), string(domain.FormatSevenOrEightASide))),
		validation.Field(&req.Capacity, validation.Min(0)),
		validation.Field(&req.DayPrice, validation.Min(0.0)),
		validation.Field(&req.NightPrice, validation.Min(0.0)),
	)
}

func (req *FieldRequest) ToField(id uint) domain.Field {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return domain.Field{
		ID:         id,
		Name:       strings.TrimSpace(req.Name),
		Sport:      domain.Sport(req.Sport),
		Format:     domain.FootballFormat(req.Format),
		Capacity:   req.Capacity,
		DayPrice:   req.DayPrice,
		NightPrice: req.NightPrice,
		Active:     active,
	}
}

type CreateReservationRequest struct {
	FieldID  uint    `json:"field_id"`
	Date     string  `json:"date"`
	Start    string  `json:"start"`
	Duration float64 `json:"duration"`
	ContactRequest
}

func (req *CreateReservationRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.FieldID, validation.Required),
		validation.Field(&req.Date, validation.Required, validation.By(validDate)),
		validation.Field(&req.Start, validation.Required, validation.By(validTimeOfDay)),
		validation.Field(&req.Duration, validation.Min(0.0)),
	)
	if err != nil {
		return err
	}
	return req.ContactRequest.Validate()
}

// ToInput parses the date in the venue's location.
func (req *CreateReservationRequest) ToInput(loc *time.Location, fingerprint string) (service.CreateReservationInput, error) {
	date, err := domain.ParseDate(req.Date, loc)
	if err != nil {
		return service.CreateReservationInput{}, err
	}
	start, err := domain.ParseTimeOfDay(req.Start)
	if err != nil {
		return service.CreateReservationInput{}, err
	}

	return service.CreateReservationInput{
		Customer:      req.ToCustomer(),
		FieldID:       req.FieldID,
		Date:          date,
		Start:         start,
		DurationHours: req.Duration,
		Fingerprint:   fingerprint,
	}, nil
}

type ConfirmReservationRequest struct {
	Token string `json:"token"`
}

func (req *ConfirmReservationRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Token, validation.Required, is.UUID),
	)
}

type ReservationStatusRequest struct {
	Status string `json:"status"`
}

func (req *ReservationStatusRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required,
			validation.In(string(domain.StatusPending), string(domain.StatusConfirmed), string(domain.StatusCancelled))),
	)
}

type SubscriptionStatusRequest struct {
	Status string `json:"status"`
}

func (req *SubscriptionStatusRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required, validation.In(string(domain.SubscriptionCancelled))),
	)
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func ParseWeekday(s string) (time.Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if d, ok := weekdays[s]; ok {
		return d, nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 0 && n <= 6 {
		return time.Weekday(n), nil
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

type CreateSubscriptionRequest struct {
	FieldID   uint    `json:"field_id"`
	Weekday   string  `json:"weekday"`
	Start     string  `json:"start"`
	Duration  float64 `json:"duration"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	Month     int     `json:"month"`
	Year      int     `json:"year"`
	ContactRequest
}

func (req *CreateSubscriptionRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.FieldID, validation.Required),
		validation.Field(&req.Weekday, validation.Required, validation.By(func(v interface{}) error {
			_, err := ParseWeekday(v.(string))
			return err
		})),
		validation.Field(&req.Start, validation.Required, validation.By(validTimeOfDay)),
		validation.Field(&req.Duration, validation.Min(0.0)),
		validation.Field(&req.StartDate, validation.By(validDate)),
		validation.Field(&req.EndDate, validation.By(validDate)),
		validation.Field(&req.Month, validation.Min(0), validation.Max(12)),
		validation.Field(&req.Year, validation.Min(0), validation.Max(9999)),
	)
	if err != nil {
		return err
	}

	byDates := req.StartDate != "" && req.EndDate != ""
	byMonth := req.Month != 0 && req.Year != 0
	if byDates == byMonth {
		return errMonthOrDates
	}

	return req.ContactRequest.Validate()
}

func (req *CreateSubscriptionRequest) ToInput(loc *time.Location) (service.CreateSubscriptionInput, error) {
	weekday, err := ParseWeekday(req.Weekday)
	if err != nil {
		return service.CreateSubscriptionInput{}, err
	}
	start, err := domain.ParseTimeOfDay(req.Start)
	if err != nil {
		return service.CreateSubscriptionInput{}, err
	}

	var from, to time.Time
	if req.Month != 0 {
		from, to = domain.MonthWindow(req.Year, time.Month(req.Month), loc)
	} else {
		if from, err = domain.ParseDate(req.StartDate, loc); err != nil {
			return service.CreateSubscriptionInput{}, err
		}
		if to, err = domain.ParseDate(req.EndDate, loc); err != nil {
			return service.CreateSubscriptionInput{}, err
		}
	}

	return service.CreateSubscriptionInput{
		FieldID:       req.FieldID,
		Weekday:       weekday,
		Start:         start,
		DurationHours: req.Duration,
		StartDate:     from,
		EndDate:       to,
		Customer:      req.ToCustomer(),
	}, nil
}

type MaterializeRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (req *MaterializeRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.From, validation.Required, validation.By(validDate)),
		validation.Field(&req.To, validation.Required, validation.By(validDate)),
	)
}

type NightStartRequest struct {
	NightStart string `json:"night_start"`
}

func (req *NightStartRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.NightStart, validation.Required, validation.By(validTimeOfDay)),
	)
}
