package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/terrainbook/booking-api/internal/api/handler/v1/request"
	"github.com/terrainbook/booking-api/internal/api/handler/v1/response"
	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/service"
)

type FieldService interface {
	CreateField(ctx context.Context, field domain.Field) (domain.Field, error)
	UpdateField(ctx context.Context, field domain.Field) (domain.Field, error)
	GetField(ctx context.Context, id uint) (domain.Field, error)
	ListFields(ctx context.Context, activeOnly bool) ([]domain.Field, error)
}

type FieldHandler struct {
	svc FieldService
}

func NewFieldHandler(svc FieldService) *FieldHandler {
	return &FieldHandler{
		svc: svc,
	}
}

func fieldErr(op string, id uint, err error) *response.Err {
	switch {
	case errors.Is(err, service.ErrFieldNotFound):
		return response.ErrNotFound("field", "id", id)
	case errors.Is(err, service.ErrFieldNameExists):
		return response.ErrConflict(service.ErrFieldNameExists)
	default:
		return response.ErrFromService(op, err)
	}
}

// HandleListFields godoc
// @Summary      List bookable fields
// @Tags         fields
// @Produce      json
// @Success      200  {array}   domain.Field
// @Router       /fields [get]
func (h *FieldHandler) HandleListFields(ctx *gin.Context) {
	fields, err := h.svc.ListFields(ctx.Request.Context(), ctx.Query("all") != "true")
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleListFields -> h.svc.ListFields -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, fields)
}

// HandleGetField godoc
// @Summary      Get a field
// @Tags         fields
// @Produce      json
// @Param        fieldID  path      int  true  "Field ID"
// @Success      200  {object}  domain.Field
// @Failure      404  {object}  response.Err
// @Router       /fields/{fieldID} [get]
func (h *FieldHandler) HandleGetField(ctx *gin.Context) {
	id, err := request.ParamID(ctx, "fieldID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	field, err := h.svc.GetField(ctx.Request.Context(), id)
	if err != nil {
		response.RenderErr(ctx, fieldErr("v1.HandleGetField -> h.svc.GetField", id, err))
		return
	}

	ctx.JSON(http.StatusOK, field)
}

// HandleCreateField godoc
// @Summary      Create a field
// @Tags         fields
// @Accept       json
// @Produce      json
// @Param        input  body      request.FieldRequest  true  "Field"
// @Success      201    {object}  domain.Field
// @Failure      400    {object}  response.Err
// @Failure      409    {object}  response.Err
// @Router       /fields [post]
// @Security     BearerAuth
func (h *FieldHandler) HandleCreateField(ctx *gin.Context) {
	var req request.FieldRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	field, err := h.svc.CreateField(ctx.Request.Context(), req.ToField(0))
	if err != nil {
		response.RenderErr(ctx, fieldErr("v1.HandleCreateField -> h.svc.CreateField", 0, err))
		return
	}

	ctx.JSON(http.StatusCreated, field)
}

// HandleUpdateField godoc
// @Summary      Update a field
// @Tags         fields
// @Accept       json
// @Produce      json
// @Param        fieldID  path      int  true  "Field ID"
// @Param        input  body      request.FieldRequest  true  "Field"
// @Success      200    {object}  domain.Field
// @Failure      400    {object}  response.Err
// @Failure      404    {object}  response.Err
// @Router       /fields/{fieldID} [put]
// @Security     BearerAuth
func (h *FieldHandler) HandleUpdateField(ctx *gin.Context) {
	id, err := request.ParamID(ctx, "fieldID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.FieldRequest
	if err = ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	field, err := h.svc.UpdateField(ctx.Request.Context(), req.ToField(id))
	if err != nil {
		response.RenderErr(ctx, fieldErr("v1.HandleUpdateField -> h.svc.UpdateField", id, err))
		return
	}

	ctx.JSON(http.StatusOK, field)
}
