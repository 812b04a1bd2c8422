package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/terrainbook/booking-api/internal/api/middleware"
)

// HandleHealthcheck godoc
// @Summary      Healthcheck
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       / [get]
func HandleHealthcheck(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func currentUserID(ctx *gin.Context) uint {
	return ctx.GetUint(middleware.ContextUserID)
}
