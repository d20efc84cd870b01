package middleware

import (
	"net/http"
	"net/http/httptest"
	"storefront/internal/auth"
	"storefront/pkg/ctxmanage"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*gin.Engine, *auth.Keys) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	k, err := auth.NewKeys([]byte("mid-secret"))
	require.NoError(t, err)
	m, err := NewMid(k)
	require.NoError(t, err)

	r := gin.New()
	r.Use(Logger())
	r.Use(m.Authentication())
	r.GET("/admin", m.Authorize(func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"trace": ctxmanage.GetTraceIdOfRequest(c)})
	}, auth.RoleAdmin))
	return r, k
}

func TestAuthenticationAndAuthorize(t *testing.T) {
	r, k := newTestEngine(t)
	adminTkn, err := k.GenerateToken(auth.NewClaims("1", time.Minute, auth.RoleAdmin))
	require.NoError(t, err)
	userTkn, err := k.GenerateToken(auth.NewClaims("2", time.Minute, auth.RoleUser))
	require.NoError(t, err)

	tt := []struct {
		name   string
		header string
		want   int
	}{
		{name: "no header", header: "", want: http.StatusUnauthorized},
		{name: "malformed", header: "Token " + adminTkn, want: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer " + userTkn, want: http.StatusForbidden},
		{name: "admin", header: "Bearer " + adminTkn, want: http.StatusOK},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))
		})
	}
}

func TestNewMid_NilKeys(t *testing.T) {
	_, err := NewMid(nil)
	assert.Error(t, err)
}
