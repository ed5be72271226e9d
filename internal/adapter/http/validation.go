package http

import (
	"regexp"
	"strconv"

	"credlink/pkg/bps"
	"credlink/pkg/id"

	"github.com/go-playground/validator/v10"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

var reAsset = regexp.MustCompile(`^[A-Z0-9]{2,12}$`)

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// loan id = 32-char lowercase hex
	_ = v.RegisterValidation("hex32", func(fl validator.FieldLevel) bool {
		return id.IsLoanID(fl.Field().String())
	})
	// money amount that fits a signed 64-bit column
	_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
		return bps.Storable(fl.Field().Uint())
	})
	// asset code, e.g. USDC, XLM
	_ = v.RegisterValidation("asset", func(fl validator.FieldLevel) bool {
		return reAsset.MatchString(fl.Field().String())
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "hex32":
			out = append(out, FieldError{Field: field, Message: "must be 32-char lowercase hex"})
		case "eth_addr":
			out = append(out, FieldError{Field: field, Message: "must be a 0x-prefixed 20-byte hex address"})
		case "amount":
			out = append(out, FieldError{Field: field, Message: "must not exceed " + strconv.FormatUint(bps.MaxAmount, 10)})
		case "asset":
			out = append(out, FieldError{Field: field, Message: "must be 2-12 uppercase letters or digits"})
		case "gt":
			out = append(out, FieldError{Field: field, Message: "must be greater than " + e.Param()})
		case "gte":
			out = append(out, FieldError{Field: field, Message: "must be greater than or equal to " + e.Param()})
		case "lte":
			out = append(out, FieldError{Field: field, Message: "must be less than or equal to " + e.Param()})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
