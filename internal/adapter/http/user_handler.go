package http

import (
	"net/http"

	"credlink/internal/adapter/middleware"
	"credlink/internal/usecase/credit"
	"credlink/internal/usecase/loan"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	credits *credit.Usecase
	loans   *loan.Usecase
}

func NewUserHandler(credits *credit.Usecase, loans *loan.Usecase) *UserHandler {
	return &UserHandler{credits: credits, loans: loans}
}

type registerReq struct {
	Address string `json:"address" validate:"required,eth_addr"`
}

type verificationReq struct {
	Verified *bool `json:"verified" validate:"required"`
}

func (h *UserHandler) Register(c echo.Context) error {
	var req registerReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	addr := canonicalAddress(req.Address)
	// users register themselves; admins may onboard anyone
	if caller := middleware.CallerFrom(c); caller != "" && caller != addr && !middleware.IsAdmin(c) {
		return c.JSON(http.StatusForbidden, ErrorResponse{Error: "caller may only register its own address"})
	}
	dto, err := h.credits.Register(c.Request().Context(), addr)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	addr, ok := addressParam(c)
	if !ok {
		return invalidAddress(c)
	}
	dto, err := h.credits.Profile(c.Request().Context(), addr)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// SetVerification toggles the identity flag; admin only.
func (h *UserHandler) SetVerification(c echo.Context) error {
	addr, ok := addressParam(c)
	if !ok {
		return invalidAddress(c)
	}
	var req verificationReq
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	dto, err := h.credits.SetIdentityVerified(c.Request().Context(), addr, *req.Verified)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *UserHandler) ListLoans(c echo.Context) error {
	addr, ok := addressParam(c)
	if !ok {
		return invalidAddress(c)
	}
	list, err := h.loans.ListByBorrower(c.Request().Context(), addr)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, list)
}

func canonicalAddress(s string) string { return common.HexToAddress(s).Hex() }

func addressParam(c echo.Context) (string, bool) {
	raw := c.Param("address")
	if !common.IsHexAddress(raw) {
		return "", false
	}
	return canonicalAddress(raw), true
}

func invalidAddress(c echo.Context) error {
	return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation failed",
		Details: []FieldError{{Field: "address", Message: "must be a 0x-prefixed 20-byte hex address"}},
	})
}
