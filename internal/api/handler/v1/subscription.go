package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/terrainbook/booking-api/internal/api/handler/v1/request"
	"github.com/terrainbook/booking-api/internal/api/handler/v1/response"
	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/service"
)

type SubscriptionService interface {
	CreateSubscription(ctx context.Context, in service.CreateSubscriptionInput) (domain.Subscription, error)
	GetSubscription(ctx context.Context, id uint) (domain.Subscription, error)
	ListSubscriptions(ctx context.Context) ([]domain.Subscription, error)
	CancelSubscription(ctx context.Context, id uint) (domain.Subscription, error)
	Materialize(ctx context.Context, id uint, from, to time.Time) (service.MaterializeReport, error)
	SweepExpired(ctx context.Context) (int, error)
}

type SubscriptionHandler struct {
	svc SubscriptionService
	loc *time.Location
}

func NewSubscriptionHandler(svc SubscriptionService, loc *time.Location) *SubscriptionHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &SubscriptionHandler{
		svc: svc,
		loc: loc,
	}
}

func subscriptionErr(op string, err error) *response.Err {
	switch {
	case errors.Is(err, service.ErrSubscriptionNotFound):
		return response.ErrResourceNotFound(service.ErrSubscriptionNotFound)
	case errors.Is(err, service.ErrFieldNotFound):
		return response.ErrResourceNotFound(service.ErrFieldNotFound)
	case errors.Is(err, service.ErrInvalidWindow):
		return response.ErrBadRequest(err)
	default:
		return response.ErrFromService(op, err)
	}
}

// HandleCreateSubscription godoc
// @Summary      Create a weekly subscription
// @Description  Give start_date and end_date, or month and year for a whole month.
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateSubscriptionRequest  true  "Subscription"
// @Success      201    {object}  domain.Subscription
// @Failure      400    {object}  response.Err
// @Failure      409    {object}  response.Err
// @Failure      422    {object}  response.Err
// @Router       /subscriptions [post]
// @Security     BearerAuth
func (h *SubscriptionHandler) HandleCreateSubscription(ctx *gin.Context) {
	var req request.CreateSubscriptionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	in, err := req.ToInput(h.loc)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	sub, err := h.svc.CreateSubscription(ctx.Request.Context(), in)
	if err != nil {
		response.RenderErr(ctx, subscriptionErr("v1.HandleCreateSubscription -> h.svc.CreateSubscription", err))
		return
	}

	ctx.JSON(http.StatusCreated, sub)
}

// HandleListSubscriptions godoc
// @Summary      List subscriptions
// @Tags         subscriptions
// @Produce      json
// @Success      200  {array}  domain.Subscription
// @Router       /subscriptions [get]
// @Security     BearerAuth
func (h *SubscriptionHandler) HandleListSubscriptions(ctx *gin.Context) {
	subs, err := h.svc.ListSubscriptions(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleListSubscriptions -> h.svc.ListSubscriptions -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, subs)
}

// HandleGetSubscription godoc
// @Summary      Get a subscription
// @Tags         subscriptions
// @Produce      json
// @Param        subscriptionID  path  int  true  "Subscription ID"
// @Success      200  {object}  domain.Subscription
// @Failure      404  {object}  response.Err
// @Router       /subscriptions/{subscriptionID} [get]
// @Security     BearerAuth
func (h *SubscriptionHandler) HandleGetSubscription(ctx *gin.Context) {
	id, err := request.ParamID(ctx, "subscriptionID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	sub, err := h.svc.GetSubscription(ctx.Request.Context(), id)
	if err != nil {
		response.RenderErr(ctx, subscriptionErr("v1.HandleGetSubscription -> h.svc.GetSubscription", err))
		return
	}

	ctx.JSON(http.StatusOK, sub)
}

// HandleChangeStatus godoc
// @Summary      Cancel a subscription
// @Description  Only "cancelled" is accepted. Reservations of the subscription that have not started are cancelled too.
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        subscriptionID  path  int  true  "Subscription ID"
// @Param        input  body      request.SubscriptionStatusRequest  true  "Status"
// @Success      200  {object}  domain.Subscription
// @Failure      404  {object}  response.Err
// @Router       /subscriptions/{subscriptionID}/status [patch]
// @Security     BearerAuth
func (h *SubscriptionHandler) HandleChangeStatus(ctx *gin.Context) {
	id, err := request.ParamID(ctx, "subscriptionID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.SubscriptionStatusRequest
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	sub, err := h.svc.CancelSubscription(ctx.Request.Context(), id)
	if err != nil {
		response.RenderErr(ctx, subscriptionErr("v1.HandleChangeStatus -> h.svc.CancelSubscription", err))
		return
	}

	ctx.JSON(http.StatusOK, sub)
}

// HandleMaterialize godoc
// @Summary      Write subscription occurrences as reservations
// @Tags         subscriptions
// @Accept       json
// @Produce      json
// @Param        subscriptionID  path  int  true  "Subscription ID"
// @Param        input  body      request.MaterializeRequest  true  "Range"
// @Success      200  {object}  service.MaterializeReport
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      422  {object}  response.Err
// @Router       /subscriptions/{subscriptionID}/materialize [post]
// @Security     BearerAuth
func (h *SubscriptionHandler) HandleMaterialize(ctx *gin.Context) {
	id, err := request.ParamID(ctx, "subscriptionID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.MaterializeRequest
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	from, _ := domain.ParseDate(req.From, h.loc)
	to, _ := domain.ParseDate(req.To, h.loc)

	report, err := h.svc.Materialize(ctx.Request.Context(), id, from, to)
	if err != nil {
		response.RenderErr(ctx, subscriptionErr("v1.HandleMaterialize -> h.svc.Materialize", err))
		return
	}

	ctx.JSON(http.StatusOK, report)
}

// HandleSweep godoc
// @Summary      Persist the expiry of ended subscriptions
// @Tags         subscriptions
// @Produce      json
// @Success      200  {object}  response.SweepResult
// @Router       /subscriptions/sweep [post]
// @Security     BearerAuth
func (h *SubscriptionHandler) HandleSweep(ctx *gin.Context) {
	n, err := h.svc.SweepExpired(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleSweep -> h.svc.SweepExpired -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, response.SweepResult{Cancelled: n})
}
