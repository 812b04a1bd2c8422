package response

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/terrainbook/booking-api/internal/domain"
)

type Err struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	StatusText     string `json:"status"`
	Kind           string `json:"kind,omitempty"`
	Message        string `json:"message"`
}

func (e *Err) Error() string {
	return e.Message
}

// RenderErr writes e as JSON. Only server errors are logged; rejections are
// expected outcomes.
func RenderErr(ctx *gin.Context, e *Err) {
	if e.HTTPStatusCode >= http.StatusInternalServerError {
		zap.L().Error(e.StatusText,
			zap.String("request_id", requestid.Get(ctx)),
			zap.String("path", ctx.FullPath()),
			zap.Error(e.Err))
	}

	ctx.AbortWithStatusJSON(e.HTTPStatusCode, e)
}

func newErr(status int, err error, message string) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status),
		Message:        message,
	}
}

func ErrBadRequest(err error) *Err {
	return newErr(http.StatusBadRequest, err, err.Error())
}

func ErrNotFound(resource, key string, value any) *Err {
	err := fmt.Errorf("%s with %s %v does not exist", resource, key, value)
	return newErr(http.StatusNotFound, err, err.Error())
}

// ErrResourceNotFound renders a lookup sentinel such as "field not found".
func ErrResourceNotFound(sentinel error) *Err {
	return newErr(http.StatusNotFound, sentinel, sentinel.Error())
}

func ErrWrongCredentials(err error) *Err {
	return newErr(http.StatusUnauthorized, err, "wrong email or password")
}

func ErrUnauthorized(err error) *Err {
	return newErr(http.StatusUnauthorized, err, "authentication required")
}

func ErrPermissionDenied(err error) *Err {
	return newErr(http.StatusForbidden, err, "permission denied")
}

func ErrConflict(err error) *Err {
	return newErr(http.StatusConflict, err, err.Error())
}

func ErrInternalServerError(err error) *Err {
	return newErr(http.StatusInternalServerError, err, "internal server error")
}

var rejectionStatus = []struct {
	kind   error
	status int
	name   string
}{
	{domain.ErrInvalidSlot, http.StatusUnprocessableEntity, "invalid_slot"},
	{domain.ErrConflict, http.StatusConflict, "conflict"},
	{domain.ErrExpired, http.StatusGone, "expired"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found"},
	{domain.ErrBlocked, http.StatusForbidden, "blocked"},
	{domain.ErrInvalidTransition, http.StatusConflict, "invalid_transition"},
}

// ErrRejected maps a booking rejection to its status and keeps the reason as
// the message. The second result is false when err is not a rejection.
func ErrRejected(err error) (*Err, bool) {
	for _, r := range rejectionStatus {
		if !errors.Is(err, r.kind) {
			continue
		}
		e := newErr(r.status, err, domain.ReasonOf(err))
		e.Kind = r.name
		if r.kind == domain.ErrInvalidTransition {
			e.Message = err.Error()
		}
		return e, true
	}
	return nil, false
}

// ErrFromService renders rejections as such and anything else as a 500
// wrapped with op.
func ErrFromService(op string, err error) *Err {
	if e, ok := ErrRejected(err); ok {
		return e
	}
	return ErrInternalServerError(fmt.Errorf("%s -> %w", op, err))
}
