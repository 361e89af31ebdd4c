package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	portssvc "github.com/openpurse/personal_wallet_app/internal/core/ports/services"
	"github.com/openpurse/personal_wallet_app/internal/platform/clock"
)

// RegisterAPIRoutes wires all versioned API routes onto the given group.
func RegisterAPIRoutes(v1 *gin.RouterGroup, as portssvc.AccountService, ls portssvc.LedgerService, clk clock.Clock) {
	registerAccountRoutes(v1, as, ls, clk)
	registerLedgerRoutes(v1, ls)
}

// RegisterValidators installs custom binding rules on gin's validator engine.
// money2dp accepts decimal amounts with at most two fractional digits, the scale
// money crosses the API boundary at.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("money2dp", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		if !ok {
			return false
		}
		return d.Exponent() >= -2
	})
}
