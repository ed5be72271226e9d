package http

import (
	"net/http"

	"credlink/internal/usecase/pool"

	"github.com/labstack/echo/v4"
)

type PoolHandler struct{ uc *pool.Usecase }

func NewPoolHandler(uc *pool.Usecase) *PoolHandler { return &PoolHandler{uc: uc} }

type createPoolReq struct {
	Asset               string `json:"asset" validate:"required,asset"`
	InitialFunds        uint64 `json:"initial_funds" validate:"amount"`
	MinCreditScore      uint32 `json:"min_credit_score" validate:"lte=850"`
	InterestRateBps     uint32 `json:"interest_rate_bps"`
	MaxLoanDurationDays uint32 `json:"max_loan_duration_days" validate:"gte=1"`
}

type fundReq struct {
	Amount uint64 `json:"amount" validate:"gt=0,amount"`
}

func (h *PoolHandler) CreatePool(c echo.Context) error {
	var req createPoolReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.CreatePool(c.Request().Context(), pool.CreatePoolInput(req))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *PoolHandler) GetPool(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("asset"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *PoolHandler) Fund(c echo.Context) error {
	var req fundReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Fund(c.Request().Context(), c.Param("asset"), req.Amount)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
