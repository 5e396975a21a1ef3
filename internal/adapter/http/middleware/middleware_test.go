package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"pesa-gateway/internal/core/domain"
	"pesa-gateway/internal/core/ports/mocks"
	"pesa-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestAPIKeyAuth_SetsAccountAndMode(t *testing.T) {
	ctrl := gomock.NewController(t)
	auth := mocks.NewMockAuthenticator(ctrl)
	account := &domain.Account{ID: uuid.New(), Status: domain.AccountStatusApproved}
	auth.EXPECT().Authenticate(gomock.Any(), "sk_test_abc").Return(account, domain.ModeSandbox, nil)

	r := gin.New()
	r.POST("/charge", APIKeyAuth(auth, zerolog.Nop()), func(c *gin.Context) {
		got, _ := c.Get(CtxAccount)
		mode, _ := c.Get(CtxMode)
		assert.Equal(t, account, got)
		assert.Equal(t, domain.ModeSandbox, mode)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/charge", nil)
	req.Header.Set(HeaderAPIKey, "sk_test_abc")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyAuth_BearerFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	auth := mocks.NewMockAuthenticator(ctrl)
	account := &domain.Account{ID: uuid.New(), Status: domain.AccountStatusApproved}
	auth.EXPECT().Authenticate(gomock.Any(), "sk_live_xyz").Return(account, domain.ModeLive, nil)

	r := gin.New()
	r.POST("/charge", APIKeyAuth(auth, zerolog.Nop()), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/charge", nil)
	req.Header.Set("Authorization", "Bearer sk_live_xyz")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAPIKeyAuth_RejectsBadKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	auth := mocks.NewMockAuthenticator(ctrl)
	auth.EXPECT().Authenticate(gomock.Any(), gomock.Any()).
		Return(nil, domain.Mode(""), apperror.ErrInvalidAPIKey())

	handlerRan := false
	r := gin.New()
	r.POST("/charge", APIKeyAuth(auth, zerolog.Nop()), func(c *gin.Context) {
		handlerRan = true
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/charge", nil)
	req.Header.Set(HeaderAPIKey, "sk_test_wrong")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, handlerRan)
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.POST("/charge", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/charge", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORS_HeadersOnNormalRequest(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMaxBodySize(t *testing.T) {
	r := gin.New()
	r.Use(MaxBodySize(16))
	r.POST("/charge", func(c *gin.Context) {
		var body map[string]interface{}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.AbortWithStatus(http.StatusRequestEntityTooLarge)
			return
		}
		c.Status(http.StatusOK)
	})

	big := bytes.Repeat([]byte("a"), 64)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/charge", bytes.NewReader(big))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zerolog.Nop()))
	r.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Internal server error")
}
