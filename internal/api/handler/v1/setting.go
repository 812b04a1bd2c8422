package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/terrainbook/booking-api/internal/api/handler/v1/request"
	"github.com/terrainbook/booking-api/internal/api/handler/v1/response"
	"github.com/terrainbook/booking-api/internal/domain"
)

type SettingService interface {
	NightStart(ctx context.Context) (domain.TimeOfDay, error)
	SetNightStart(ctx context.Context, t domain.TimeOfDay) (domain.TimeOfDay, error)
}

type SettingHandler struct {
	svc SettingService
}

func NewSettingHandler(svc SettingService) *SettingHandler {
	return &SettingHandler{svc: svc}
}

// HandleGetNightStart godoc
// @Summary      Night rate cutoff
// @Tags         settings
// @Produce      json
// @Success      200  {object}  response.NightStart
// @Router       /settings/night-start [get]
// @Security     BearerAuth
func (h *SettingHandler) HandleGetNightStart(ctx *gin.Context) {
	t, err := h.svc.NightStart(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleGetNightStart -> h.svc.NightStart -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, response.NightStart{NightStart: t})
}

// HandlePutNightStart godoc
// @Summary      Change the night rate cutoff
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        input  body      request.NightStartRequest  true  "HH:MM"
// @Success      200  {object}  response.NightStart
// @Failure      400  {object}  response.Err
// @Router       /settings/night-start [put]
// @Security     BearerAuth
func (h *SettingHandler) HandlePutNightStart(ctx *gin.Context) {
	var req request.NightStartRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	t, err := h.svc.SetNightStart(ctx.Request.Context(), domain.MustParseTimeOfDay(req.NightStart))
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandlePutNightStart -> h.svc.SetNightStart -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, response.NightStart{NightStart: t})
}
