package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openpurse/personal_wallet_app/internal/apperrors"
	portssvc "github.com/openpurse/personal_wallet_app/internal/core/ports/services"
	"github.com/openpurse/personal_wallet_app/internal/dto"
	"github.com/openpurse/personal_wallet_app/internal/middleware"
	"github.com/openpurse/personal_wallet_app/internal/platform/clock"
)

// accountHandler handles HTTP requests related to accounts.
type accountHandler struct {
	accountService portssvc.AccountService
	ledgerService  portssvc.LedgerService
	clock          clock.Clock
}

func newAccountHandler(as portssvc.AccountService, ls portssvc.LedgerService, clk clock.Clock) *accountHandler {
	return &accountHandler{
		accountService: as,
		ledgerService:  ls,
		clock:          clk,
	}
}

// registerAccountRoutes registers routes related to accounts.
func registerAccountRoutes(rg *gin.RouterGroup, as portssvc.AccountService, ls portssvc.LedgerService, clk clock.Clock) {
	h := newAccountHandler(as, ls, clk)

	accounts := rg.Group("/accounts")
	{
		accounts.POST("", h.createAccount)
		accounts.GET("/:accountID", h.getAccount)
	}
}

// createAccount provisions a new wallet account with an initial balance.
func (h *accountHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAccount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			logger.Error("Failed to create account in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToAccountResponse(account))
}

// getAccount retrieves an account. The ledger self-heals on load: a reconciliation
// pass runs first so long scheduler gaps never surface a stale balance.
func (h *accountHandler) getAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	h.ledgerService.Tick(c.Request.Context(), accountID, h.clock.Now())

	account, err := h.accountService.GetAccountByID(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		} else if errors.Is(err, apperrors.ErrStoreUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Store temporarily unavailable"})
		} else {
			logger.Error("Failed to get account in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve account"})
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToAccountResponse(account))
}
