package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/terrainbook/booking-api/internal/api/handler/v1/request"
	"github.com/terrainbook/booking-api/internal/api/handler/v1/response"
	"github.com/terrainbook/booking-api/internal/config"
	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/pkg/jwthelper"
	"github.com/terrainbook/booking-api/internal/service"
)

type AuthService interface {
	CreateStaff(ctx context.Context, user domain.User) (domain.User, error)
	Login(ctx context.Context, email, password string) (domain.User, error)
	GetUser(ctx context.Context, id uint) (domain.User, error)
	ListStaff(ctx context.Context, role domain.Role) ([]domain.User, error)
}

type AuthHandler struct {
	conf *config.APIConfig
	svc  AuthService
}

func NewAuthHandler(conf *config.APIConfig, svc AuthService) *AuthHandler {
	return &AuthHandler{
		conf: conf,
		svc:  svc,
	}
}

// HandleLogin godoc
// @Summary      Login a staff member
// @Tags         auth
// @Produce      json
// @Param        request   body      request.LoginRequest true "request body"
// @Success      200      {object}   response.LoginResponse
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/login [post]
func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	req := request.LoginRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	user, err := h.svc.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrWrongPassword) {
			response.RenderErr(ctx, response.ErrWrongCredentials(err))

			return
		}

		err = fmt.Errorf("v1.HandleLogin -> h.svc.Login -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	token, err := jwthelper.GenerateToken([]byte(h.conf.JWTSigningKey), user.ID, user.Role, ctx.Request.UserAgent(), h.conf.JWTTTL)
	if err != nil {
		err = fmt.Errorf("v1.HandleLogin -> jwthelper.GenerateToken -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, response.LoginResponse{
		Token: token,
		User:  user,
	})
}

// HandleCreateStaff godoc
// @Summary      Create a staff account
// @Tags         auth
// @Produce      json
// @Param        request   body      request.CreateStaffRequest true "request body"
// @Success      201      {object}   domain.User
// @Failure      400      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Router       /auth/staff [post]
// @Security     BearerAuth
func (h *AuthHandler) HandleCreateStaff(ctx *gin.Context) {
	var req request.CreateStaffRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.CreateStaff(ctx.Request.Context(), req.ToUser())
	if err != nil {
		if errors.Is(err, service.ErrUserEmailExists) {
			response.RenderErr(ctx, response.ErrConflict(service.ErrUserEmailExists))
			return
		}
		err = fmt.Errorf("v1.HandleCreateStaff -> h.svc.CreateStaff -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, user)
}

// HandleListStaff godoc
// @Summary      List staff accounts
// @Tags         auth
// @Produce      json
// @Param        role     query      string  false  "staff or admin"
// @Success      200      {array}    domain.User
// @Failure      400      {object}   response.Err
// @Router       /auth/staff [get]
// @Security     BearerAuth
func (h *AuthHandler) HandleListStaff(ctx *gin.Context) {
	users, err := h.svc.ListStaff(ctx.Request.Context(), domain.Role(ctx.Query("role")))
	if err != nil {
		if errors.Is(err, service.ErrInvalidRole) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleListStaff -> h.svc.ListStaff -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, users)
}

// HandleMe godoc
// @Summary      Current staff account
// @Tags         auth
// @Produce      json
// @Success      200      {object}   domain.User
// @Failure      404      {object}   response.Err
// @Router       /auth/me [get]
// @Security     BearerAuth
func (h *AuthHandler) HandleMe(ctx *gin.Context) {
	id := currentUserID(ctx)

	user, err := h.svc.GetUser(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("user", "id", id))
			return
		}
		response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("v1.HandleMe -> h.svc.GetUser -> %w", err)))
		return
	}

	ctx.JSON(http.StatusOK, user)
}
