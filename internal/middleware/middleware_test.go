package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/getmentor/getmentor-escrow/internal/models"
	apperrors "github.com/getmentor/getmentor-escrow/pkg/errors"
	"github.com/getmentor/getmentor-escrow/pkg/jwt"
	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"github.com/getmentor/getmentor-escrow/pkg/metrics"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	// Initialize logger for tests
	_ = logger.Initialize(logger.Config{Level: "error", Environment: "test"})
}

const walletAddr = "0x70997970c51812dc3a010c7d01b50e0d17dc79c8"

func TestInternalAPIAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		header     string
		wantCalled bool
		wantStatus int
	}{
		{"valid token", "internal-secret", "internal-secret", true, http.StatusOK},
		{"wrong token", "internal-secret", "wrong", false, http.StatusUnauthorized},
		{"missing token", "internal-secret", "", false, http.StatusUnauthorized},
		{"not configured", "", "", false, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			handlerCalled := false
			router.Use(InternalAPIAuthMiddleware(tt.configured))
			router.POST("/test", func(c *gin.Context) {
				handlerCalled = true
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/test", nil)
			if tt.header != "" {
				req.Header.Set(InternalAPITokenHeader, tt.header)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCalled, handlerCalled)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func walletRouter(tm *jwt.TokenManager, seen *models.Address) *gin.Engine {
	router := gin.New()
	router.Use(WalletSessionMiddleware(tm))
	router.POST("/test", func(c *gin.Context) {
		addr, err := CallerAddress(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		*seen = addr
		c.Status(http.StatusOK)
	})
	return router
}

func TestWalletSessionMiddleware_ValidToken(t *testing.T) {
	tm := jwt.NewTokenManager("secret", "test", 1)
	token, _, err := tm.GenerateToken(walletAddr)
	require.NoError(t, err)

	var seen models.Address
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	walletRouter(tm, &seen).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.Address(walletAddr), seen)
}

func TestWalletSessionMiddleware_Rejects(t *testing.T) {
	tm := jwt.NewTokenManager("secret", "test", 1)
	foreign, _, err := jwt.NewTokenManager("other-secret", "test", 1).GenerateToken(walletAddr)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"empty bearer", "Bearer "},
		{"garbage token", "Bearer not-a-jwt"},
		{"foreign signature", "Bearer " + foreign},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen models.Address
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/test", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			walletRouter(tm, &seen).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Empty(t, seen)
		})
	}
}

func TestGetWalletSession_Missing(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := GetWalletSession(c)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	c.Set(WalletSessionContextKey, "not a session")
	_, err = GetWalletSession(c)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestRateLimiter(t *testing.T) {
	router := gin.New()
	router.Use(NewRateLimiter("test", 1, 2).Middleware())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	var lastRetryAfter string
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
		lastRetryAfter = w.Header().Get("Retry-After")
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "1", lastRetryAfter)

	// another client has its own bucket
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBodySizeLimitMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(BodySizeLimitMiddleware(8))
	router.POST("/test", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"name":"far too long"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestObservabilityMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(ObservabilityMiddleware())
	router.GET("/sessions/:id", func(c *gin.Context) {
		_ = c.Error(apperrors.ErrSessionNotActive)
		c.Status(http.StatusConflict)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sessions/42?token=secret", nil))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestObservabilityMiddleware_ServesRoutesBehindRecovery(t *testing.T) {
	router := gin.New()
	router.Use(gin.Recovery(), ObservabilityMiddleware())

	var inFlight float64
	router.GET("/api/v1/mentors", func(c *gin.Context) {
		inFlight = testutil.ToFloat64(metrics.ActiveRequests.WithLabelValues(http.MethodGet, "/api/v1/mentors"))
		c.JSON(http.StatusOK, gin.H{"mentors": []string{}})
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/mentors", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"mentors":[]}`, w.Body.String())
	assert.Equal(t, float64(1), inFlight)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.ActiveRequests.WithLabelValues(http.MethodGet, "/api/v1/mentors")))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.HTTPRequestTotal.WithLabelValues(http.MethodGet, "/api/v1/mentors", "200")))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.ActiveRequests.WithLabelValues(http.MethodGet, "unmatched")))
}

func TestObservabilityMiddleware_KeepsInboundRequestID(t *testing.T) {
	var seen string
	router := gin.New()
	router.Use(ObservabilityMiddleware())
	router.GET("/test", func(c *gin.Context) {
		seen = RequestID(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}
