package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pageza/recipeshare/backend/internal/apperror"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validationError turns the first validator failure into a BadRequest with a
// message fit for the client
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.Wrap(apperror.KindBadRequest, "invalid input", err)
	}

	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return apperror.BadRequest(fmt.Sprintf("%s is required", field))
	case "email":
		return apperror.BadRequest("invalid email address")
	case "max":
		return apperror.BadRequest(fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
	default:
		return apperror.BadRequest(fmt.Sprintf("%s is invalid", field))
	}
}
