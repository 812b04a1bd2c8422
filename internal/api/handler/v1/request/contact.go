package request

import (
	"errors"

	"github.com/dlclark/regexp2"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/terrainbook/booking-api/internal/domain"
)

// At least six digits, optional leading +, common separators allowed.
var phonePattern = regexp2.MustCompile(`^\+?(?=(?:\D*\d){6,15}\D*$)[\d .()-]+$`, regexp2.None)

var errInvalidPhone = errors.New("must be a valid phone number")

func validPhone(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if ok, _ := phonePattern.MatchString(s); !ok {
		return errInvalidPhone
	}
	return nil
}

type ContactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

func (req *ContactRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 80)),
		validation.Field(&req.Phone, validation.Required, validation.By(validPhone)),
		validation.Field(&req.Email, is.Email),
	)
}

func (req *ContactRequest) ToCustomer() domain.Customer {
	return domain.Customer{
		Name:  req.Name,
		Phone: domain.NormalizeContact(domain.BlacklistPhone, req.Phone),
		Email: domain.NormalizeContact(domain.BlacklistEmail, req.Email),
	}
}

type BlacklistRequest struct {
	Kind   string `json:"kind"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func (req *BlacklistRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Kind, validation.Required, validation.In(string(domain.BlacklistPhone), string(domain.BlacklistEmail))),
		validation.Field(&req.Value, validation.Required),
		validation.Field(&req.Reason, validation.Length(0, 200)),
	)
	if err != nil {
		return err
	}

	if req.Kind == string(domain.BlacklistEmail) {
		return validation.Validate(req.Value, is.Email)
	}
	return validation.Validate(req.Value, validation.By(validPhone))
}

func (req *BlacklistRequest) ToEntry() domain.BlacklistEntry {
	return domain.BlacklistEntry{
		Kind:   domain.BlacklistKind(req.Kind),
		Value:  req.Value,
		Reason: req.Reason,
	}
}
