package http

import (
	"errors"
	"net/http"

	"credlink/internal/domain/loan"
	"credlink/internal/domain/pool"
	"credlink/internal/domain/user"
	"credlink/internal/infrastructure/oracle"

	"github.com/labstack/echo/v4"
)

// statusFor maps domain errors to HTTP status codes. Zero means the error is
// not a domain error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, user.ErrNotFound),
		errors.Is(err, pool.ErrNotFound),
		errors.Is(err, loan.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, user.ErrDuplicateUser),
		errors.Is(err, pool.ErrAlreadyExists),
		errors.Is(err, loan.ErrNotActive),
		errors.Is(err, loan.ErrInvalidTransition),
		errors.Is(err, loan.ErrNotOverdue):
		return http.StatusConflict
	case errors.Is(err, loan.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, loan.ErrInsufficientCreditScore),
		errors.Is(err, loan.ErrInsufficientCollateral),
		errors.Is(err, loan.ErrInsufficientPayment),
		errors.Is(err, loan.ErrInvalidAmount),
		errors.Is(err, loan.ErrOverflow),
		errors.Is(err, pool.ErrInsufficientFunds),
		errors.Is(err, pool.ErrInvalidAmount),
		errors.Is(err, pool.ErrInvalidConfig),
		errors.Is(err, pool.ErrOverflow),
		errors.Is(err, user.ErrInvalidAddress),
		errors.Is(err, oracle.ErrNoPrice):
		return http.StatusUnprocessableEntity
	}
	return 0
}

// fail writes a domain error as JSON. Anything else becomes a 500 whose
// cause is kept for the request logger.
func fail(c echo.Context, err error) error {
	if code := statusFor(err); code != 0 {
		return c.JSON(code, ErrorResponse{Error: err.Error()})
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
}

// bindAndValidate writes the 400/422 response itself and reports false when
// the request should stop.
func bindAndValidate(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
