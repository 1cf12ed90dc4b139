package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipeshare/backend/internal/apperror"
)

// bodyError classifies a failure to read or decode the request body
func bodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
		return apperror.New(apperror.KindTooLarge, "request body too large")
	}
	return apperror.Wrap(apperror.KindBadRequest, "invalid request body", err)
}

// parseForm reads a multipart or urlencoded form into the request
func parseForm(c *gin.Context, maxMemory int64) error {
	err := c.Request.ParseMultipartForm(maxMemory)
	if err == nil || errors.Is(err, http.ErrNotMultipart) {
		return nil
	}
	return bodyError(err)
}

func parseID(c *gin.Context, param, what string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(param), 10, 64)
	if err != nil || id == 0 {
		return 0, apperror.BadRequest("invalid " + what + " id")
	}
	return uint(id), nil
}
