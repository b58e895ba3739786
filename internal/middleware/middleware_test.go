package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/printmarket/internal/logging"
	"github.com/flicky/printmarket/pkg/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, sub string, role model.Role, ttl time.Duration) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub, "role": string(role), "exp": time.Now().Add(ttl).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", AuthMiddleware(testSecret), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": GetUserID(c), "role": GetUserRole(c)})
	})
	r.POST("/sell", AuthMiddleware(testSecret), SellerOnly(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + signToken(t, testSecret, id.String(), model.RoleBuyer, time.Hour), http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"wrong secret", "Bearer " + signToken(t, "other", id.String(), model.RoleBuyer, time.Hour), http.StatusUnauthorized},
		{"expired", "Bearer " + signToken(t, testSecret, id.String(), model.RoleBuyer, -time.Hour), http.StatusUnauthorized},
		{"bad subject", "Bearer " + signToken(t, testSecret, "nope", model.RoleBuyer, time.Hour), http.StatusUnauthorized},
	}

	r := newAuthRouter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusOK {
				assert.Contains(t, w.Body.String(), id.String())
			} else {
				assert.Contains(t, w.Body.String(), `"code":"UNAUTHORIZED"`)
			}
		})
	}
}

func TestSellerOnly(t *testing.T) {
	r := newAuthRouter()
	id := uuid.New().String()

	for role, want := range map[model.Role]int{
		model.RoleSeller: http.StatusNoContent,
		model.RoleBuyer:  http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodPost, "/sell", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, id, role, time.Hour))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, want, w.Code, role)
	}
}

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestLogger(logging.New(&buf, "info")))
	r.GET("/ping/:id", func(c *gin.Context) {
		logging.FromContext(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping/1", nil)
	req.Header.Set(requestIDHeader, "rid-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "rid-1", w.Header().Get(requestIDHeader))
	out := buf.String()
	assert.Contains(t, out, `"msg":"inside handler"`)
	assert.Contains(t, out, `"request_id":"rid-1"`)
	assert.Contains(t, out, `"path":"/ping/:id"`)
	assert.Contains(t, out, `"level":"WARN"`)
}
