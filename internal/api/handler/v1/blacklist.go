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

type BlacklistService interface {
	Block(ctx context.Context, e domain.BlacklistEntry) (domain.BlacklistEntry, error)
	Unblock(ctx context.Context, id uint) error
	List(ctx context.Context) ([]domain.BlacklistEntry, error)
}

type BlacklistHandler struct {
	svc BlacklistService
}

func NewBlacklistHandler(svc BlacklistService) *BlacklistHandler {
	return &BlacklistHandler{svc: svc}
}

// HandleBlock godoc
// @Summary      Blacklist a phone or email
// @Tags         blacklist
// @Accept       json
// @Produce      json
// @Param        input  body      request.BlacklistRequest  true  "Entry"
// @Success      201  {object}  domain.BlacklistEntry
// @Failure      400  {object}  response.Err
// @Failure      409  {object}  response.Err
// @Router       /blacklist [post]
// @Security     BearerAuth
func (h *BlacklistHandler) HandleBlock(ctx *gin.Context) {
	var req request.BlacklistRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	entry, err := h.svc.Block(ctx.Request.Context(), req.ToEntry())
	if err != nil {
		if errors.Is(err, service.ErrBlacklistEntryExists) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrBlacklistEntryExists))
			return
		}
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleBlock -> h.svc.Block -> %w", err)))
		return
	}

	ctx.JSON(http.StatusCreated, entry)
}

// HandleList godoc
// @Summary      List blacklist entries
// @Tags         blacklist
// @Produce      json
// @Success      200  {array}  domain.BlacklistEntry
// @Router       /blacklist [get]
// @Security     BearerAuth
func (h *BlacklistHandler) HandleList(ctx *gin.Context) {
	entries, err := h.svc.List(ctx.Request.Context())
	if err != nil {
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleList -> h.svc.List -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, entries)
}

// HandleUnblock godoc
// @Summary      Remove a blacklist entry
// @Tags         blacklist
// @Param        entryID  path  int  true  "Entry ID"
// @Success      204
// @Failure      404  {object}  response.Err
// @Router       /blacklist/{entryID} [delete]
// @Security     BearerAuth
func (h *BlacklistHandler) HandleUnblock(ctx *gin.Context) {
	id, err := request.ParamID(ctx, "entryID")
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err = h.svc.Unblock(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrBlacklistEntryNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("blacklist entry", "id", id))
			return
		}
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleUnblock -> h.svc.Unblock -> %w", err)))
		return
	}

	ctx.Status(http.StatusNoContent)
}
