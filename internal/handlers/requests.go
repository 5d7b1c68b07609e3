package handlers

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidator wraps go-playground/validator to implement echo.Validator.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new CustomValidator.
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate implements the echo.Validator interface.
func (cv *CustomValidator) Validate(i any) error {
	return cv.validator.Struct(i)
}

// BindAndValidate binds the request into v and validates it. Failures are
// returned as 400 responses in the ErrorResponse format.
func BindAndValidate(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid_request", "request body could not be decoded")
	}
	if c.Echo().Validator == nil {
		return nil
	}
	if err := c.Validate(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return NewHTTPError(http.StatusBadRequest, "validation_failed",
				verrs[0].Field()+" failed "+verrs[0].Tag()+" validation")
		}
		return NewHTTPError(http.StatusBadRequest, "validation_failed", err.Error())
	}
	return nil
}
