package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openpurse/personal_wallet_app/internal/apperrors"
	"github.com/openpurse/personal_wallet_app/internal/core/domain"
	portsrepo "github.com/openpurse/personal_wallet_app/internal/core/ports/repositories"
	portssvc "github.com/openpurse/personal_wallet_app/internal/core/ports/services"
	"github.com/openpurse/personal_wallet_app/internal/dto"
	"github.com/openpurse/personal_wallet_app/internal/middleware"
	"github.com/openpurse/personal_wallet_app/internal/platform/clock"
	"github.com/openpurse/personal_wallet_app/internal/utils/accounting"
)

// AccountService provisions and reads account records. All balance mutation goes
// through the LedgerService.
type AccountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
	clock       clock.Clock
}

var _ portssvc.AccountService = (*AccountService)(nil)

// NewAccountService creates a new AccountService.
func NewAccountService(repo portsrepo.AccountRepositoryFacade, clk clock.Clock) *AccountService {
	return &AccountService{accountRepo: repo, clock: clk}
}

func (s *AccountService) CreateAccount(ctx context.Context, req dto.CreateAccountRequest) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if req.InitialBalance.IsNegative() {
		return nil, fmt.Errorf("%w: initial balance must not be negative", apperrors.ErrValidation)
	}

	now := s.clock.Now()
	account := domain.Account{
		AccountID:           uuid.NewString(),
		Name:                req.Name,
		CurrencyCode:        strings.ToUpper(req.CurrencyCode),
		Balance:             accounting.RoundMoney(req.InitialBalance),
		PendingWithdrawals:  decimal.Zero,
		TotalTransactions:   0,
		CreationDate:        now,
		LastInterestApplied: now,
		Version:             1,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			LastUpdatedAt: now,
		},
	}

	if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
		logger.Error("Failed to save account in repository", slog.String("error", err.Error()), slog.String("account_id", account.AccountID))
		return nil, err
	}

	logger.Info("Account created", slog.String("account_id", account.AccountID))
	return &account, nil
}

func (s *AccountService) GetAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	account, err := s.accountRepo.FindAccountByID(ctx, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			logger.Error("Failed to find account by ID in repository", slog.String("error", err.Error()), slog.String("account_id", accountID))
		}
		return nil, err
	}
	return account, nil
}
