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
	"github.com/terrainbook/booking-api/internal/api/middleware"
	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/service"
)

type ReservationService interface {
	CreateReservation(ctx context.Context, in service.CreateReservationInput) (domain.Reservation, error)
	CreateStaffReservation(ctx context.Context, in service.CreateReservationInput) (domain.Reservation, error)
	ConfirmReservation(ctx context.Context, token string) (domain.Reservation, error)
	ChangeStatus(ctx context.Context, id uint, to domain.ReservationStatus) (domain.Reservation, error)
	ExpireIfOverdue(ctx context.Context, id uint) (bool, error)
	SweepExpired(ctx context.Context) (int, error)
	ListReservations(ctx context.Context, view service.ReservationView) ([]domain.Reservation, error)
	GetReservation(ctx context.Context, id uint) (domain.Reservation, error)

	GenerateSlots(ctx context.Context, fieldID uint, date time.Time) ([]domain.TimeOfDay, error)
	CheckAvailability(ctx context.Context, fieldID uint, date time.Time, start domain.TimeOfDay, durationHours float64) error
	SlotBoard(ctx context.Context, fieldID uint, date time.Time, durationHours float64) (service.SlotBoard, error)
	PricePreview(ctx context.Context, fieldID uint, start domain.TimeOfDay, durationHours float64) (service.PriceQuote, error)
}

type ReservationHandler struct {
	svc    ReservationService
	loc    *time.Location
	window time.Duration
}

func NewReservationHandler(svc ReservationService, loc *time.Location, confirmationWindow time.Duration) *ReservationHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &ReservationHandler{
		svc:    svc,
		loc:    loc,
		window: confirmationWindow,
	}
}

func reservationErr(op string, err error) *response.Err {
	if errors.Is(err, service.ErrFieldNotFound) {
		return response.ErrResourceNotFound(service.ErrFieldNotFound)
	}
	if errors.Is(err, service.ErrReservationNotFound) {
		return response.ErrResourceNotFound(service.ErrReservationNotFound)
	}
	return response.ErrFromService(op, err)
}

// HandleSlotBoard godoc
// @Summary      Slots of a field on a date
// @Description  Every start of the day with its availability and price. Advisory only; booking decides again.
// @Tags         availability
// @Produce      json
// @Param        fieldID   path   int     true   "Field ID"
// @Param        date      query  string  true   "YYYY-MM-DD"
// @Param        duration  query  number  false  "hours, default 1.5"
// @Success      200  {object}  service.SlotBoard
// @Failure      400  {object}  response.Err
// @Failure      404  {object}  response.Err
// @Failure      422  {object}  response.Err
// @Router       /fields/{fieldID}/slots [get]
func (h *ReservationHandler) HandleSlotBoard(ctx *gin.Context) {
	fieldID, err := request.ParamID(ctx, "fieldID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	date, err := request.QueryDate(ctx, "date", h.loc)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	duration, err := request.QueryDuration(ctx, "duration", 1.5)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	board, err := h.svc.SlotBoard(ctx.Request.Context(), fieldID, date, duration)
	if err != nil {
		response.RenderErr(ctx, reservationErr("v1.HandleSlotBoard -> h.svc.SlotBoard", err))
		return
	}

	ctx.JSON(http.StatusOK, board)
}

// HandleAvailability godoc
// @Summary      Is one slot bookable
// @Tags         availability
// @Produce      json
// @Param        fieldID   path   int     true   "Field ID"
// @Param        date      query  string  true   "YYYY-MM-DD"
// @Param        start     query  string  true   "HH:MM"
// @Param        duration  query  number  false  "hours, default 1.5"
// @Success      200  {object}  response.Availability
// @Failure      400  {object}  response.Err
// @Router       /fields/{fieldID}/availability [get]
func (h *ReservationHandler) HandleAvailability(ctx *gin.Context) {
	fieldID, err := request.ParamID(ctx, "fieldID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	date, err := request.QueryDate(ctx, "date", h.loc)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	start, err := request.QueryTimeOfDay(ctx, "start")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	duration, err := request.QueryDuration(ctx, "duration", 1.5)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	err = h.svc.CheckAvailability(ctx.Request.Context(), fieldID, date, start, duration)
	if err == nil {
		ctx.JSON(http.StatusOK, response.Availability{Available: true})
		return
	}
	if e, ok := response.ErrRejected(err); ok {
		ctx.JSON(http.StatusOK, response.Availability{Kind: e.Kind, Reason: e.Message})
		return
	}

	response.RenderErr(ctx, reservationErr("v1.HandleAvailability -> h.svc.CheckAvailability", err))
}

// HandleGenerateSlots godoc
// @Summary      Candidate starts of a field on a date
// @Tags         availability
// @Produce      json
// @Param        fieldID   path   int     true   "Field ID"
// @Param        date      query  string  true   "YYYY-MM-DD"
// @Success      200  {array}   string
// @Router       /fields/{fieldID}/starts [get]
func (h *ReservationHandler) HandleGenerateSlots(ctx *gin.Context) {
	fieldID, err := request.ParamID(ctx, "fieldID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	date, err := request.QueryDate(ctx, "date", h.loc)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	starts, err := h.svc.GenerateSlots(ctx.Request.Context(), fieldID, date)
	if err != nil {
		response.RenderErr(ctx, reservationErr("v1.HandleGenerateSlots -> h.svc.GenerateSlots", err))
		return
	}

	ctx.JSON(http.StatusOK, starts)
}

// HandlePrice godoc
// @Summary      Price of a booking
// @Tags         availability
// @Produce      json
// @Param        fieldID   path   int     true   "Field ID"
// @Param        start     query  string  true   "HH:MM"
// @Param        duration  query  number  false  "hours, default 1.5"
// @Success      200  {object}  service.PriceQuote
// @Router       /fields/{fieldID}/price [get]
func (h *ReservationHandler) HandlePrice(ctx *gin.Context) {
	fieldID, err := request.ParamID(ctx, "fieldID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	start, err := request.QueryTimeOfDay(ctx, "start")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}
	duration, err := request.QueryDuration(ctx, "duration", 1.5)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	quote, err := h.svc.PricePreview(ctx.Request.Context(), fieldID, start, duration)
	if err != nil {
		response.RenderErr(ctx, reservationErr("v1.HandlePrice -> h.svc.PricePreview", err))
		return
	}

	ctx.JSON(http.StatusOK, quote)
}

func (h *ReservationHandler) bindCreate(ctx *gin.Context) (service.CreateReservationInput, bool) {
	var req request.CreateReservationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return service.CreateReservationInput{}, false
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return service.CreateReservationInput{}, false
	}

	in, err := req.ToInput(h.loc, ctx.GetHeader(middleware.FingerprintHeader))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return service.CreateReservationInput{}, false
	}

	return in, true
}

// HandleCreateReservation godoc
// @Summary      Book a slot
// @Description  Creates a pending reservation. It must be confirmed with the returned token before the confirmation window closes.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        X-Device-Fingerprint  header  string  false  "device fingerprint"
// @Param        input  body      request.CreateReservationRequest  true  "Reservation"
// @Success      201    {object}  response.ReservationCreated
// @Failure      400    {object}  response.Err
// @Failure      403    {object}  response.Err
// @Failure      409    {object}  response.Err
// @Failure      422    {object}  response.Err
// @Router       /reservations [post]
func (h *ReservationHandler) HandleCreateReservation(ctx *gin.Context) {
	in, ok := h.bindCreate(ctx)
	if !ok {
		return
	}

	res, err := h.svc.CreateReservation(ctx.Request.Context(), in)
	if err != nil {
		response.RenderErr(ctx, reservationErr("v1.HandleCreateReservation -> h.svc.CreateReservation", err))
		return
	}

	ctx.JSON(http.StatusCreated, response.ReservationCreated{
		Reservation: res,
		Token:       res.Token,
		ExpiresIn:   h.window.String(),
	})
}

// HandleConfirmReservation godoc
// @Summary      Confirm a reservation
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        input  body      request.ConfirmReservationRequest  true  "Token"
// @Success      200    {object}  domain.Reservation
// @Failure      404    {object}  response.Err
// @Failure      410    {object}  response.Err
// @Router       /reservations/confirm [post]
func (h *ReservationHandler) HandleConfirmReservation(ctx *gin.Context) {
	var req request.ConfirmReservationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	res, err := h.svc.ConfirmReservation(ctx.Request.Context(), req.Token)
	if err != nil {
		response.RenderErr(ctx, reservationErr("v1.HandleConfirmReservation -> h.svc.ConfirmReservation", err))
		return
	}

	ctx.JSON(http.StatusOK, res)
}

// HandleCreateStaffReservation godoc
// @Summary      Book a slot on behalf of a customer
// @Description  Staff bookings are confirmed immediately.
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        input  body      request.CreateReservationRequest  true  "Reservation"
// @Success      201    {object}  domain.Reservation
// @Failure      409    {object}  response.Err
// @Failure      422    {object}  response.Err
// @Router       /staff/reservations [post]
// @Security     BearerAuth
func (h *ReservationHandler) HandleCreateStaffReservation(ctx *gin.Context) {
	in, ok := h.bindCreate(ctx)
	if !ok {
		return
	}

	res, err := h.svc.CreateStaffReservation(ctx.Request.Context(), in)
	if err != nil {
		response.RenderErr(ctx, reservationErr("v1.HandleCreateStaffReservation -> h.svc.CreateStaffReservation", err))
		return
	}

	ctx.JSON(http.StatusCreated, res)
}

// HandleChangeStatus godoc
// @Summary      Change a reservation status
// @Tags         reservations
// @Accept       json
// @Produce      json
// @Param        reservationID  path  int  true  "Reservation ID"
// @Param        input  body      request.ReservationStatusRequest  true  "Status"
// @Success      200    {object}  domain.Reservation
// @Failure      404    {object}  response.Err
// @Failure      409    {object}  response.Err
// @Router       /reservations/{reservationID}/status [patch]
// @Security     BearerAuth
func (h *ReservationHandler) HandleChangeStatus(ctx *gin.Context) {
	id, err := request.ParamID(ctx, "reservationID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.ReservationStatusRequest
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	res, err := h.svc.ChangeStatus(ctx.Request.Context(), id, domain.ReservationStatus(req.Status))
	if err != nil {
		response.RenderErr(ctx, reservationErr("v1.HandleChangeStatus -> h.svc.ChangeStatus", err))
		return
	}

	ctx.JSON(http.StatusOK, res)
}

// HandleListReservations godoc
// @Summary      List reservations
// @Tags         reservations
// @Produce      json
// @Param        view  query  string  false  "upcoming (default) or current"
// @Success      200   {array}  domain.Reservation
// @Router       /reservations [get]
// @Security     BearerAuth
func (h *ReservationHandler) HandleListReservations(ctx *gin.Context) {
	view := service.ReservationView(ctx.DefaultQuery("view", string(service.ViewUpcoming)))
	if !view.Valid() {
		response.RenderErr(ctx, response.ErrBadRequest(fmt.Errorf("invalid view %q", view)))
		return
	}

	list, err := h.svc.ListReservations(ctx.Request.Context(), view)
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleListReservations -> h.svc.ListReservations -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, list)
}

// HandleGetReservation godoc
// @Summary      Get a reservation
// @Tags         reservations
// @Produce      json
// @Param        reservationID  path  int  true  "Reservation ID"
// @Success      200  {object}  domain.Reservation
// @Failure      404  {object}  response.Err
// @Router       /reservations/{reservationID} [get]
// @Security     BearerAuth
func (h *ReservationHandler) HandleGetReservation(ctx *gin.Context) {
	id, err := request.ParamID(ctx, "reservationID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	res, err := h.svc.GetReservation(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrReservationNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("reservation", "id", id))
			return
		}
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleGetReservation -> h.svc.GetReservation -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, res)
}

// HandleExpireReservation godoc
// @Summary      Expire one overdue reservation
// @Tags         reservations
// @Produce      json
// @Param        reservationID  path  int  true  "Reservation ID"
// @Success      200  {object}  response.SweepResult
// @Router       /reservations/{reservationID}/expire [post]
// @Security     BearerAuth
func (h *ReservationHandler) HandleExpireReservation(ctx *gin.Context) {
	id, err := request.ParamID(ctx, "reservationID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	done, err := h.svc.ExpireIfOverdue(ctx.Request.Context(), id)
	if err != nil {
		response.RenderErr(ctx, reservationErr("v1.HandleExpireReservation -> h.svc.ExpireIfOverdue", err))
		return
	}

	result := response.SweepResult{}
	if done {
		result.Cancelled = 1
	}
	ctx.JSON(http.StatusOK, result)
}

// HandleSweep godoc
// @Summary      Cancel every overdue pending reservation
// @Tags         reservations
// @Produce      json
// @Success      200  {object}  response.SweepResult
// @Router       /reservations/sweep [post]
// @Security     BearerAuth
func (h *ReservationHandler) HandleSweep(ctx *gin.Context) {
	n, err := h.svc.SweepExpired(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleSweep -> h.svc.SweepExpired -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, response.SweepResult{Cancelled: n})
}
