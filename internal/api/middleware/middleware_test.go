package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrainbook/booking-api/internal/domain"
	"github.com/terrainbook/booking-api/internal/pkg/jwthelper"
)

const signingKey = "middleware-test-key"

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	staff := r.Group("/", NewAuthenticator(signingKey).VerifyJWT())
	staff.GET("/me", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"id": ctx.GetUint(ContextUserID)})
	})
	staff.GET("/admin", RequireAdmin(), func(ctx *gin.Context) {
		ctx.Status(http.StatusNoContent)
	})
	return r
}

func call(t *testing.T, r http.Handler, path string, role domain.Role) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("User-Agent", "test-agent")
	if role != "" {
		token, err := jwthelper.GenerateToken([]byte(signingKey), 9, role, "test-agent", time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestVerifyJWT(t *testing.T) {
	r := newRouter()

	assert.Equal(t, http.StatusUnauthorized, call(t, r, "/me", "").Code)

	w := call(t, r, "/me", domain.RoleStaff)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":9}`, w.Body.String())
}

func TestRequireAdmin(t *testing.T) {
	r := newRouter()

	assert.Equal(t, http.StatusForbidden, call(t, r, "/admin", domain.RoleStaff).Code)
	assert.Equal(t, http.StatusNoContent, call(t, r, "/admin", domain.RoleAdmin).Code)
}
