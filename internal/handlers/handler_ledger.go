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
)

// ledgerHandler handles HTTP requests against the ledger engine.
type ledgerHandler struct {
	ledgerService portssvc.LedgerService
}

func newLedgerHandler(ls portssvc.LedgerService) *ledgerHandler {
	return &ledgerHandler{ledgerService: ls}
}

// registerLedgerRoutes registers the transaction and withdrawal routes.
func registerLedgerRoutes(rg *gin.RouterGroup, ls portssvc.LedgerService) {
	h := newLedgerHandler(ls)

	accounts := rg.Group("/accounts/:accountID")
	{
		accounts.GET("/transactions", h.listTransactions)
		accounts.POST("/transactions", h.recordTransaction)
		accounts.PUT("/transactions/:transactionID", h.updateTransaction)
		accounts.DELETE("/transactions/:transactionID", h.deleteTransaction)
		accounts.POST("/withdrawals", h.requestWithdrawal)
		accounts.POST("/transaction-count", h.adjustTransactionCount)
	}
}

// respondLedgerError maps engine error values onto HTTP statuses. Expected business
// outcomes never hit the error log.
func respondLedgerError(c *gin.Context, logger *slog.Logger, err error, fallback string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, apperrors.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "Duplicate transaction suppressed"})
	case errors.Is(err, apperrors.ErrInsufficientBalance):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Insufficient balance"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Concurrent update, please retry"})
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Store temporarily unavailable"})
	default:
		logger.Error(fallback, slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// recordTransaction appends a manual transaction to the account's ledger.
func (h *ledgerHandler) recordTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RecordTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	txn, err := h.ledgerService.RecordTransaction(c.Request.Context(), accountID, req)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to record transaction")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// requestWithdrawal moves funds into the pending-withdrawal pipeline.
func (h *ledgerHandler) requestWithdrawal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	var req dto.CreateWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for RequestWithdrawal", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	txn, err := h.ledgerService.RequestWithdrawal(c.Request.Context(), accountID, req)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to request withdrawal")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// listTransactions returns the account's transactions newest first.
func (h *ledgerHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	txns, err := h.ledgerService.ListTransactions(c.Request.Context(), accountID)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to list transactions")
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": dto.ToListTransactionResponse(txns)})
}

// updateTransaction merges mutable fields into an existing transaction.
func (h *ledgerHandler) updateTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")
	transactionID := c.Param("transactionID")

	var req dto.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for UpdateTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	txn, err := h.ledgerService.UpdateTransaction(c.Request.Context(), accountID, transactionID, req)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to update transaction")
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// deleteTransaction removes a transaction from the log.
func (h *ledgerHandler) deleteTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")
	transactionID := c.Param("transactionID")

	if err := h.ledgerService.RemoveTransaction(c.Request.Context(), accountID, transactionID); err != nil {
		respondLedgerError(c, logger, err, "Failed to delete transaction")
		return
	}

	c.Status(http.StatusNoContent)
}

// adjustTransactionCount administratively corrects the totalTransactions counter.
func (h *ledgerHandler) adjustTransactionCount(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	accountID := c.Param("accountID")

	var req dto.AdjustTransactionCountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for AdjustTransactionCount", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	total, err := h.ledgerService.AdjustTransactionCount(c.Request.Context(), accountID, req.Delta)
	if err != nil {
		respondLedgerError(c, logger, err, "Failed to adjust transaction count")
		return
	}

	c.JSON(http.StatusOK, dto.AdjustTransactionCountResponse{AccountID: accountID, TotalTransactions: total})
}
