package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newAuthRouter(keys map[string]string, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	handlers := append([]gin.HandlerFunc{Auth(keys)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"tier": Tier(c)})
	})
	r.GET("/whoami", handlers...)
	return r
}

func get(r *gin.Engine, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthResolvesTier(t *testing.T) {
	r := newAuthRouter(map[string]string{"premium-key": "premium"})

	w := get(r, "premium-key")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tier":"premium"`)
}

func TestAuthRejectsUnknownKey(t *testing.T) {
	r := newAuthRouter(map[string]string{"premium-key": "premium"})

	assert.Equal(t, http.StatusUnauthorized, get(r, "wrong-key").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "").Code)
}

func TestAuthDisabledWithoutKeys(t *testing.T) {
	r := newAuthRouter(nil)

	w := get(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tier":""`)
}

func TestRequireTierGatesNonAdminCallers(t *testing.T) {
	keys := map[string]string{
		"admin-key": "admin",
		"free-key":  "free",
	}
	r := newAuthRouter(keys, RequireTier("admin"))

	assert.Equal(t, http.StatusOK, get(r, "admin-key").Code)
	assert.Equal(t, http.StatusForbidden, get(r, "free-key").Code)
}

func TestRequireTierStandsDownWhenAuthDisabled(t *testing.T) {
	r := newAuthRouter(nil, RequireTier("admin"))

	assert.Equal(t, http.StatusOK, get(r, "").Code)
}
