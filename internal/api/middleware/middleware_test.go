package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "voicescribe/internal/app/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newAuthRouter(auth *Authenticator) *gin.Engine {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/me", auth.Middleware(), func(c *gin.Context) {
		p := CurrentPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"user_id": p.UserID, "admin": p.IsAdmin()})
	})
	router.GET("/admin", auth.Middleware(), RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func TestAuthenticator(t *testing.T) {
	auth := NewAuthenticator("test-secret", discardLogger())
	userToken, err := auth.GenerateToken(7, "user", time.Hour)
	require.NoError(t, err)
	adminToken, err := auth.GenerateToken(1, "admin", time.Hour)
	require.NoError(t, err)
	expired, err := auth.GenerateToken(7, "user", -time.Minute)
	require.NoError(t, err)
	foreign, err := NewAuthenticator("other-secret", discardLogger()).GenerateToken(7, "admin", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name       string
		path       string
		header     string
		query      string
		wantStatus int
	}{
		{name: "valid token", path: "/me", header: "Bearer " + userToken, wantStatus: http.StatusOK},
		{name: "query token", path: "/me", query: "?access_token=" + userToken, wantStatus: http.StatusOK},
		{name: "missing token", path: "/me", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", path: "/me", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "expired token", path: "/me", header: "Bearer " + expired, wantStatus: http.StatusUnauthorized},
		{name: "foreign signature", path: "/me", header: "Bearer " + foreign, wantStatus: http.StatusUnauthorized},
		{name: "admin route as user", path: "/admin", header: "Bearer " + userToken, wantStatus: http.StatusForbidden},
		{name: "admin route as admin", path: "/admin", header: "Bearer " + adminToken, wantStatus: http.StatusNoContent},
	}

	router := newAuthRouter(auth)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantStatus == http.StatusUnauthorized {
				var body map[string]interface{}
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, "unauthorized", body["kind"])
				assert.NotEmpty(t, body["request_id"])
			}
		})
	}
}

func TestAuthenticatorParsesSubject(t *testing.T) {
	auth := NewAuthenticator("test-secret", discardLogger())
	token, err := auth.GenerateToken(42, "admin", time.Hour)
	require.NoError(t, err)

	p, err := auth.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), p.UserID)
	assert.True(t, p.Requester().Admin)
	assert.Equal(t, int64(42), p.Requester().UserID)
}

func TestHandleErrorMapsDomainErrors(t *testing.T) {
	router := gin.New()
	router.Use(RequestID())
	router.GET("/quota", func(c *gin.Context) {
		HandleError(c, &apierrors.QuotaExceededError{LimitKey: "weeklyTranscriptionCount", Reason: "weekly limit reached"})
	})
	router.GET("/boom", func(c *gin.Context) {
		HandleError(c, io.ErrUnexpectedEOF)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/quota", nil)
	req.Header.Set("X-Request-ID", "req-1")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "quota_exceeded", body["code"])
	assert.Equal(t, "req-1", body["request_id"])
	assert.Equal(t, "weeklyTranscriptionCount", body["details"].(map[string]interface{})["limit_key"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "unexpected EOF")
}

func TestErrorHandlerRecoversPanics(t *testing.T) {
	router := gin.New()
	router.Use(RequestID(), ErrorHandler(discardLogger()))
	router.GET("/panic", func(c *gin.Context) { panic("kaboom") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"internal"`)
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS(CORSConfig{AllowOrigins: []string{"https://app.example.com"}, AllowMethods: []string{"GET"}, MaxAge: 600}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

type listQuery struct {
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Status string `form:"status" binding:"omitempty,oneof=pending completed"`
}

func TestValidateQuery(t *testing.T) {
	router := gin.New()
	router.GET("/list", func(c *gin.Context) {
		var q listQuery
		if err := ValidateQuery(c, &q); err != nil {
			HandleError(c, err)
			return
		}
		c.JSON(http.StatusOK, q)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/list?limit=500", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"limit":"is too large"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/list?limit=5&status=pending", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
