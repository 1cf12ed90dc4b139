package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pageza/recipeshare/backend/internal/apperror"
)

// ErrorResponse is the JSON body of every error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ErrorHandler renders the last error a handler attached with c.Error.
// Application errors keep their kind and message; anything else becomes a
// generic 500 and the cause is logged.
func ErrorHandler(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		appErr, ok := apperror.As(err)
		if !ok {
			appErr = apperror.Internal(err)
		}

		if appErr.Kind == apperror.KindInternal {
			logger.Error("request failed",
				zap.String("request_id", c.GetString(RequestIDKey)),
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err),
			)
		}

		c.JSON(appErr.StatusCode(), ErrorResponse{
			Error:   string(appErr.Kind),
			Message: appErr.Message,
		})
	}
}

// NotFound answers unknown API routes with a JSON 404
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   string(apperror.KindNotFound),
			Message: "resource not found",
		})
	}
}
