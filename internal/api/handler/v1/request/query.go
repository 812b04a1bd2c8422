package request

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/terrainbook/booking-api/internal/domain"
)

func ParamID(ctx *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q", name, ctx.Param(name))
	}
	return uint(id), nil
}

func QueryDate(ctx *gin.Context, name string, loc *time.Location) (time.Time, error) {
	v := ctx.Query(name)
	if v == "" {
		return time.Time{}, fmt.Errorf("query parameter %s is required", name)
	}
	return domain.ParseDate(v, loc)
}

func QueryTimeOfDay(ctx *gin.Context, name string) (domain.TimeOfDay, error) {
	v := ctx.Query(name)
	if v == "" {
		return 0, fmt.Errorf("query parameter %s is required", name)
	}
	return domain.ParseTimeOfDay(v)
}

// QueryDuration defaults to fallback when the parameter is absent.
func QueryDuration(ctx *gin.Context, name string, fallback float64) (float64, error) {
	v := ctx.Query(name)
	if v == "" {
		return fallback, nil
	}
	d, err := strconv.ParseFloat(v, 64)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return d, nil
}
