package http

import (
	"net/http"

	"credlink/internal/adapter/middleware"
	"credlink/internal/usecase/liquidation"

	"github.com/labstack/echo/v4"
)

// LiquidationHandler exposes health checks and forced closures. Collateral
// is priced by the valuer; only admins may supply a value in the body.
type LiquidationHandler struct {
	uc         *liquidation.Usecase
	valuer     liquidation.Valuer
	sweepLimit int
}

func NewLiquidationHandler(uc *liquidation.Usecase, v liquidation.Valuer, sweepLimit int) *LiquidationHandler {
	return &LiquidationHandler{uc: uc, valuer: v, sweepLimit: sweepLimit}
}

type evaluateReq struct {
	CollateralValue *uint64 `json:"collateral_value" validate:"omitempty,amount"`
}

type defaultReq struct {
	Recovered *uint64 `json:"recovered" validate:"omitempty,amount"`
}

type sweepReq struct {
	Limit int `json:"limit" validate:"gte=0"`
}

func (h *LiquidationHandler) Evaluate(c echo.Context) error {
	var req evaluateReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx := c.Request().Context()
	loanID := c.Param("loan_id")

	var (
		ev  *liquidation.Evaluation
		err error
	)
	admin := middleware.IsAdmin(c)
	switch {
	case req.CollateralValue != nil && !admin:
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "collateral_value override requires admin"})
	case req.CollateralValue != nil:
		ev, err = h.uc.Evaluate(ctx, loanID, *req.CollateralValue)
	case h.valuer != nil:
		ev, err = h.uc.EvaluatePriced(ctx, loanID, h.valuer)
	case admin:
		return missingValue(c, "collateral_value")
	default:
		return noOracle(c)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ev)
}

// Default closes an overdue loan; admin only.
func (h *LiquidationHandler) Default(c echo.Context) error {
	var req defaultReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	ctx := c.Request().Context()
	loanID := c.Param("loan_id")

	var (
		closure *liquidation.Closure
		err     error
	)
	switch {
	case req.Recovered != nil:
		closure, err = h.uc.Default(ctx, loanID, *req.Recovered)
	case h.valuer != nil:
		closure, err = h.uc.DefaultPriced(ctx, loanID, h.valuer)
	default:
		return missingValue(c, "recovered")
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, closure)
}

// Sweep runs one pass over active loans; admin only.
func (h *LiquidationHandler) Sweep(c echo.Context) error {
	if h.valuer == nil {
		return noOracle(c)
	}
	var req sweepReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	limit := h.sweepLimit
	if req.Limit > 0 {
		limit = req.Limit
	}
	sum, err := h.uc.Sweep(c.Request().Context(), h.valuer, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}

func noOracle(c echo.Context) error {
	return c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "no price oracle configured"})
}

func missingValue(c echo.Context, field string) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Details: []FieldError{{Field: field, Message: "is required when no price oracle is configured"}},
	})
}
