package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipeshare/backend/internal/apperror"
)

var errTooLarge = apperror.New(apperror.KindTooLarge, "request body too large")

// BodyLimit caps request bodies at limit bytes. Reads past the cap fail with
// *http.MaxBytesError, which handlers report as 413.
func BodyLimit(limit int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.Error(errTooLarge)
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
