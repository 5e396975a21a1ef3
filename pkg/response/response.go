package response

import (
	"errors"
	"net/http"

	"pesa-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the error envelope returned on every failure:
// {"success": false, "error": "<message>"}.
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// OK sends a 200 response with the given payload as-is. Success payloads
// carry their own "success": true field because the sandbox and live
// acknowledgment shapes differ.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error sends an error response. If err is an *apperror.AppError the
// mapped HTTP status and client-safe message are used; anything else is
// a generic 500 that leaks no internal detail.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorBody{Success: false, Error: appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorBody{Success: false, Error: "Internal server error"})
}

// AbortError sends an error response and aborts the middleware chain.
func AbortError(c *gin.Context, err error) {
	Error(c, err)
	c.Abort()
}
