package http

import (
	"net/http"
	"strconv"

	"credlink/internal/adapter/middleware"
	"credlink/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type originateReq struct {
	Borrower         string `json:"borrower" validate:"required,eth_addr"`
	Amount           uint64 `json:"amount" validate:"gt=0,amount"`
	Asset            string `json:"asset" validate:"required,asset"`
	CollateralAmount uint64 `json:"collateral_amount" validate:"amount"`
	CollateralAsset  string `json:"collateral_asset" validate:"required,asset"`
}

type repayReq struct {
	Payment uint64 `json:"payment" validate:"amount"`
}

func (h *LoanHandler) Originate(c echo.Context) error {
	var req originateReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Originate(c.Request().Context(), loan.OriginateInput{
		Caller:           middleware.CallerFrom(c),
		Borrower:         canonicalAddress(req.Borrower),
		Amount:           req.Amount,
		Asset:            req.Asset,
		CollateralAmount: req.CollateralAmount,
		CollateralAsset:  req.CollateralAsset,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// ListActive serves GET /loans?limit=N.
func (h *LoanHandler) ListActive(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be a non-negative integer"})
		}
		limit = n
	}
	list, err := h.uc.ListActive(c.Request().Context(), limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func (h *LoanHandler) Repay(c echo.Context) error {
	var req repayReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.uc.Repay(c.Request().Context(), loan.RepayInput{
		Caller:  middleware.CallerFrom(c),
		LoanID:  c.Param("loan_id"),
		Payment: req.Payment,
	})
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
