package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/openpurse/personal_wallet_app/internal/apperrors"
	"github.com/openpurse/personal_wallet_app/internal/core/domain"
	portsrepo "github.com/openpurse/personal_wallet_app/internal/core/ports/repositories"
	"github.com/openpurse/personal_wallet_app/internal/core/services"
	"github.com/openpurse/personal_wallet_app/internal/dto"
	"github.com/openpurse/personal_wallet_app/internal/platform/clock"
)

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByID(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccountIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// --- Mock TransactionRepository ---

type MockTransactionRepository struct {
	mock.Mock
}

var _ portsrepo.TransactionRepositoryFacade = (*MockTransactionRepository)(nil)

func (m *MockTransactionRepository) FindTransactionByID(ctx context.Context, accountID, transactionID string) (*domain.Transaction, error) {
	args := m.Called(ctx, accountID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListTransactionsByAccountID(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) ListPendingWithdrawals(ctx context.Context, accountID string) ([]domain.Transaction, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) HasRecentDuplicate(ctx context.Context, accountID string, draft domain.Transaction, since time.Time) (bool, error) {
	args := m.Called(ctx, accountID, draft, since)
	return args.Bool(0), args.Error(1)
}

func (m *MockTransactionRepository) SaveTransactionWithAccount(ctx context.Context, txn domain.Transaction, account domain.Account) error {
	args := m.Called(ctx, txn, account)
	return args.Error(0)
}

func (m *MockTransactionRepository) UpdateTransactionWithAccount(ctx context.Context, txn domain.Transaction, account domain.Account) error {
	args := m.Called(ctx, txn, account)
	return args.Error(0)
}

func (m *MockTransactionRepository) UpdateTransactionsWithAccount(ctx context.Context, txns []domain.Transaction, account domain.Account) error {
	args := m.Called(ctx, txns, account)
	return args.Error(0)
}

func (m *MockTransactionRepository) DeleteTransactionWithAccount(ctx context.Context, accountID, transactionID string, account domain.Account) error {
	args := m.Called(ctx, accountID, transactionID, account)
	return args.Error(0)
}

// --- Suite ---

type LedgerServiceTestSuite struct {
	suite.Suite
	accountRepo *MockAccountRepository
	txnRepo     *MockTransactionRepository
	now         time.Time
	service     *services.LedgerService
	ctx         context.Context
}

func (s *LedgerServiceTestSuite) SetupTest() {
	s.accountRepo = new(MockAccountRepository)
	s.txnRepo = new(MockTransactionRepository)
	s.now = time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	s.service = services.NewLedgerService(s.accountRepo, s.txnRepo, clock.Fixed(s.now))
	s.ctx = context.Background()
}

func TestLedgerServiceTestSuite(t *testing.T) {
	suite.Run(t, new(LedgerServiceTestSuite))
}

func money(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (s *LedgerServiceTestSuite) freshAccount(balance string) *domain.Account {
	created := s.now.AddDate(0, 0, -1).Add(-time.Hour)
	return &domain.Account{
		AccountID:           uuid.NewString(),
		Name:                "Main wallet",
		CurrencyCode:        "EUR",
		Balance:             money(balance),
		PendingWithdrawals:  decimal.Zero,
		TotalTransactions:   0,
		CreationDate:        created,
		LastInterestApplied: s.now, // accrual already settled unless a test says otherwise
		Version:             1,
	}
}

// --- RecordTransaction ---

func (s *LedgerServiceTestSuite) TestRecordDepositCreditsBalance() {
	account := s.freshAccount("100.00")
	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil)
	s.txnRepo.On("HasRecentDuplicate", s.ctx, account.AccountID, mock.Anything, s.now.Add(-2*time.Second)).Return(false, nil)
	s.txnRepo.On("SaveTransactionWithAccount", s.ctx, mock.Anything, mock.Anything).Return(nil)

	txn, err := s.service.RecordTransaction(s.ctx, account.AccountID, dto.CreateTransactionRequest{
		Amount:      money("25.50"),
		Type:        domain.Deposit,
		Description: "top-up",
	})

	s.Require().NoError(err)
	s.Equal(domain.Completed, txn.Status)
	s.True(txn.Amount.Equal(money("25.50")))

	saved := s.txnRepo.Calls[1].Arguments.Get(2).(domain.Account)
	s.True(saved.Balance.Equal(money("125.50")), "balance: %s", saved.Balance)
	s.Equal(int64(1), saved.TotalTransactions)
	s.True(saved.PendingWithdrawals.IsZero())
}

func (s *LedgerServiceTestSuite) TestRecordExpenseDebitsBalance() {
	account := s.freshAccount("100.00")
	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil)
	s.txnRepo.On("HasRecentDuplicate", s.ctx, account.AccountID, mock.Anything, mock.Anything).Return(false, nil)
	s.txnRepo.On("SaveTransactionWithAccount", s.ctx, mock.Anything, mock.Anything).Return(nil)

	txn, err := s.service.RecordTransaction(s.ctx, account.AccountID, dto.CreateTransactionRequest{
		Amount: money("40.00"),
		Type:   domain.Expense,
	})

	s.Require().NoError(err)
	s.True(txn.Amount.Equal(money("-40.00")), "expenses are stored negative")

	saved := s.txnRepo.Calls[1].Arguments.Get(2).(domain.Account)
	s.True(saved.Balance.Equal(money("60.00")), "balance: %s", saved.Balance)
}

func (s *LedgerServiceTestSuite) TestRecordExpenseCannotOverdraw() {
	account := s.freshAccount("10.00")
	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil)
	s.txnRepo.On("HasRecentDuplicate", s.ctx, account.AccountID, mock.Anything, mock.Anything).Return(false, nil)

	_, err := s.service.RecordTransaction(s.ctx, account.AccountID, dto.CreateTransactionRequest{
		Amount: money("10.01"),
		Type:   domain.Expense,
	})

	s.ErrorIs(err, apperrors.ErrInsufficientBalance)
	s.txnRepo.AssertNotCalled(s.T(), "SaveTransactionWithAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestRecordWithdrawalDraftOnlyTracksPending() {
	account := s.freshAccount("100.00")
	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil)
	s.txnRepo.On("HasRecentDuplicate", s.ctx, account.AccountID, mock.Anything, mock.Anything).Return(false, nil)
	s.txnRepo.On("SaveTransactionWithAccount", s.ctx, mock.Anything, mock.Anything).Return(nil)

	txn, err := s.service.RecordTransaction(s.ctx, account.AccountID, dto.CreateTransactionRequest{
		Amount: money("30.00"),
		Type:   domain.Withdrawal,
	})

	s.Require().NoError(err)
	s.Equal(domain.Pending, txn.Status)
	s.True(txn.Amount.Equal(money("-30.00")))

	saved := s.txnRepo.Calls[1].Arguments.Get(2).(domain.Account)
	s.True(saved.Balance.Equal(money("100.00")), "withdrawal drafts must not touch the balance")
	s.True(saved.PendingWithdrawals.Equal(money("30.00")))
}

func (s *LedgerServiceTestSuite) TestRecordTransactionSuppressesDuplicates() {
	account := s.freshAccount("100.00")
	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil)
	s.txnRepo.On("HasRecentDuplicate", s.ctx, account.AccountID, mock.Anything, mock.Anything).Return(true, nil)

	_, err := s.service.RecordTransaction(s.ctx, account.AccountID, dto.CreateTransactionRequest{
		Amount:      money("25.50"),
		Type:        domain.Deposit,
		Description: "top-up",
	})

	s.ErrorIs(err, apperrors.ErrDuplicate)
	s.txnRepo.AssertNotCalled(s.T(), "SaveTransactionWithAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestRecordTransactionUnknownAccount() {
	s.accountRepo.On("FindAccountByID", s.ctx, "missing").Return(nil, apperrors.ErrNotFound)

	_, err := s.service.RecordTransaction(s.ctx, "missing", dto.CreateTransactionRequest{
		Amount: money("1.00"),
		Type:   domain.Income,
	})

	s.ErrorIs(err, apperrors.ErrNotFound)
}

// --- RequestWithdrawal ---

func (s *LedgerServiceTestSuite) TestRequestWithdrawalDebitsOnce() {
	account := s.freshAccount("100.00")
	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil)
	s.txnRepo.On("HasRecentDuplicate", s.ctx, account.AccountID, mock.Anything, mock.Anything).Return(false, nil)
	s.txnRepo.On("SaveTransactionWithAccount", s.ctx, mock.Anything, mock.Anything).Return(nil)

	txn, err := s.service.RequestWithdrawal(s.ctx, account.AccountID, dto.CreateWithdrawalRequest{
		Amount:       money("60.00"),
		PayoutMethod: "bank_transfer",
		PayoutMethodDetails: map[string]string{
			"iban": "DE02120300000000202051",
		},
	})

	s.Require().NoError(err)
	s.Equal(domain.Pending, txn.Status)
	s.Equal(domain.Withdrawal, txn.Type)
	s.True(txn.Amount.Equal(money("-60.00")))

	saved := s.txnRepo.Calls[1].Arguments.Get(2).(domain.Account)
	s.True(saved.Balance.Equal(money("40.00")), "balance: %s", saved.Balance)
	s.True(saved.PendingWithdrawals.Equal(money("60.00")))
	s.Equal(int64(1), saved.TotalTransactions)
}

func (s *LedgerServiceTestSuite) TestRequestWithdrawalInsufficientBalance() {
	account := s.freshAccount("50.00")
	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil)

	_, err := s.service.RequestWithdrawal(s.ctx, account.AccountID, dto.CreateWithdrawalRequest{
		Amount:       money("50.01"),
		PayoutMethod: "paypal",
	})

	s.ErrorIs(err, apperrors.ErrInsufficientBalance)
	s.txnRepo.AssertNotCalled(s.T(), "SaveTransactionWithAccount", mock.Anything, mock.Anything, mock.Anything)
}

// --- Tick ---

func (s *LedgerServiceTestSuite) TestTickAppliesAccrual() {
	account := s.freshAccount("1000.00")
	account.CreationDate = s.now.AddDate(0, 0, -1)
	account.LastInterestApplied = s.now.AddDate(0, 0, -1)
	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil)
	s.txnRepo.On("ListPendingWithdrawals", s.ctx, account.AccountID).Return([]domain.Transaction{}, nil)
	s.txnRepo.On("UpdateTransactionsWithAccount", s.ctx, mock.Anything, mock.Anything).Return(nil)

	s.service.Tick(s.ctx, account.AccountID, s.now)

	saved := s.txnRepo.Calls[1].Arguments.Get(2).(domain.Account)
	s.True(saved.Balance.Equal(money("1001.80")), "balance: %s", saved.Balance)
	s.Equal(s.now, saved.LastInterestApplied)
}

func (s *LedgerServiceTestSuite) TestTickIsIdempotent() {
	account := s.freshAccount("1001.80")
	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil)
	s.txnRepo.On("ListPendingWithdrawals", s.ctx, account.AccountID).Return([]domain.Transaction{}, nil)

	s.service.Tick(s.ctx, account.AccountID, s.now)
	s.service.Tick(s.ctx, account.AccountID, s.now)

	s.txnRepo.AssertNotCalled(s.T(), "UpdateTransactionsWithAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestTickRejectsStaleWithdrawal() {
	account := s.freshAccount("40.00")
	account.CreationDate = s.now.AddDate(0, 0, -31)
	account.PendingWithdrawals = money("60.00")

	stale := domain.Transaction{
		TransactionID: uuid.NewString(),
		AccountID:     account.AccountID,
		Amount:        money("-60.00"),
		Type:          domain.Withdrawal,
		Status:        domain.Pending,
		Date:          s.now.AddDate(0, 0, -31),
	}

	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil)
	s.txnRepo.On("ListPendingWithdrawals", s.ctx, account.AccountID).Return([]domain.Transaction{stale}, nil)
	s.txnRepo.On("UpdateTransactionsWithAccount", s.ctx, mock.Anything, mock.Anything).Return(nil)

	s.service.Tick(s.ctx, account.AccountID, s.now)

	rejected := s.txnRepo.Calls[1].Arguments.Get(1).([]domain.Transaction)
	s.Require().Len(rejected, 1)
	s.Equal(domain.Rejected, rejected[0].Status)

	saved := s.txnRepo.Calls[1].Arguments.Get(2).(domain.Account)
	s.True(saved.Balance.Equal(money("100.00")), "reversal must credit the balance back: %s", saved.Balance)
	s.True(saved.PendingWithdrawals.IsZero())
}

func (s *LedgerServiceTestSuite) TestTickKeepsFreshWithdrawalPending() {
	account := s.freshAccount("40.00")
	account.PendingWithdrawals = money("60.00")

	fresh := domain.Transaction{
		TransactionID: uuid.NewString(),
		AccountID:     account.AccountID,
		Amount:        money("-60.00"),
		Type:          domain.Withdrawal,
		Status:        domain.Pending,
		Date:          s.now.AddDate(0, 0, -29),
	}

	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil)
	s.txnRepo.On("ListPendingWithdrawals", s.ctx, account.AccountID).Return([]domain.Transaction{fresh}, nil)

	s.service.Tick(s.ctx, account.AccountID, s.now)

	s.txnRepo.AssertNotCalled(s.T(), "UpdateTransactionsWithAccount", mock.Anything, mock.Anything, mock.Anything)
}

func (s *LedgerServiceTestSuite) TestTickRetriesOnceOnConflict() {
	account := s.freshAccount("1000.00")
	account.LastInterestApplied = s.now.AddDate(0, 0, -1)
	reread := *account
	reread.Version = 2

	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil).Once()
	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(&reread, nil).Once()
	s.txnRepo.On("ListPendingWithdrawals", s.ctx, account.AccountID).Return([]domain.Transaction{}, nil)
	s.txnRepo.On("UpdateTransactionsWithAccount", s.ctx, mock.Anything, mock.Anything).Return(apperrors.ErrConflict).Once()
	s.txnRepo.On("UpdateTransactionsWithAccount", s.ctx, mock.Anything, mock.Anything).Return(nil).Once()

	s.service.Tick(s.ctx, account.AccountID, s.now)

	s.accountRepo.AssertNumberOfCalls(s.T(), "FindAccountByID", 2)
	s.txnRepo.AssertNumberOfCalls(s.T(), "UpdateTransactionsWithAccount", 2)
}

// --- UpdateTransaction ---

func (s *LedgerServiceTestSuite) TestUpdateConfirmsPendingWithdrawal() {
	account := s.freshAccount("40.00")
	account.PendingWithdrawals = money("60.00")

	pending := &domain.Transaction{
		TransactionID: uuid.NewString(),
		AccountID:     account.AccountID,
		Amount:        money("-60.00"),
		Type:          domain.Withdrawal,
		Status:        domain.Pending,
		Date:          s.now.AddDate(0, 0, -2),
	}

	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil)
	s.txnRepo.On("FindTransactionByID", s.ctx, account.AccountID, pending.TransactionID).Return(pending, nil)
	s.txnRepo.On("UpdateTransactionWithAccount", s.ctx, mock.Anything, mock.Anything).Return(nil)

	completed := domain.Completed
	txn, err := s.service.UpdateTransaction(s.ctx, account.AccountID, pending.TransactionID, dto.UpdateTransactionRequest{
		Status: &completed,
	})

	s.Require().NoError(err)
	s.Equal(domain.Completed, txn.Status)

	saved := s.txnRepo.Calls[1].Arguments.Get(2).(domain.Account)
	s.True(saved.Balance.Equal(money("40.00")), "confirmation must not credit the balance back")
	s.True(saved.PendingWithdrawals.IsZero())
}

func (s *LedgerServiceTestSuite) TestUpdateRejectedWithdrawalIsTerminal() {
	account := s.freshAccount("100.00")

	rejected := &domain.Transaction{
		TransactionID: uuid.NewString(),
		AccountID:     account.AccountID,
		Amount:        money("-60.00"),
		Type:          domain.Withdrawal,
		Status:        domain.Rejected,
		Date:          s.now.AddDate(0, 0, -40),
	}

	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil)
	s.txnRepo.On("FindTransactionByID", s.ctx, account.AccountID, rejected.TransactionID).Return(rejected, nil)

	completed := domain.Completed
	_, err := s.service.UpdateTransaction(s.ctx, account.AccountID, rejected.TransactionID, dto.UpdateTransactionRequest{
		Status: &completed,
	})

	s.ErrorIs(err, apperrors.ErrValidation)
	s.txnRepo.AssertNotCalled(s.T(), "UpdateTransactionWithAccount", mock.Anything, mock.Anything, mock.Anything)
}

// --- RemoveTransaction ---

func (s *LedgerServiceTestSuite) TestRemovePendingWithdrawalRestoresFunds() {
	account := s.freshAccount("40.00")
	account.PendingWithdrawals = money("60.00")
	account.TotalTransactions = 5

	pending := &domain.Transaction{
		TransactionID: uuid.NewString(),
		AccountID:     account.AccountID,
		Amount:        money("-60.00"),
		Type:          domain.Withdrawal,
		Status:        domain.Pending,
		Date:          s.now.AddDate(0, 0, -2),
	}

	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil)
	s.txnRepo.On("FindTransactionByID", s.ctx, account.AccountID, pending.TransactionID).Return(pending, nil)
	s.txnRepo.On("DeleteTransactionWithAccount", s.ctx, account.AccountID, pending.TransactionID, mock.Anything).Return(nil)

	err := s.service.RemoveTransaction(s.ctx, account.AccountID, pending.TransactionID)

	s.Require().NoError(err)
	saved := s.txnRepo.Calls[1].Arguments.Get(3).(domain.Account)
	s.True(saved.Balance.Equal(money("100.00")))
	s.True(saved.PendingWithdrawals.IsZero())
	s.Equal(int64(5), saved.TotalTransactions, "removal never decrements the cumulative counter")
}

// --- AdjustTransactionCount ---

func (s *LedgerServiceTestSuite) TestAdjustTransactionCount() {
	account := s.freshAccount("100.00")
	account.TotalTransactions = 7
	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil)
	s.accountRepo.On("UpdateAccount", s.ctx, mock.Anything).Return(nil)

	total, err := s.service.AdjustTransactionCount(s.ctx, account.AccountID, -2)

	s.Require().NoError(err)
	s.Equal(int64(5), total)
}

func (s *LedgerServiceTestSuite) TestAdjustTransactionCountBelowZero() {
	account := s.freshAccount("100.00")
	account.TotalTransactions = 1
	s.accountRepo.On("FindAccountByID", s.ctx, account.AccountID).Return(account, nil)

	_, err := s.service.AdjustTransactionCount(s.ctx, account.AccountID, -2)

	s.ErrorIs(err, apperrors.ErrValidation)
	s.accountRepo.AssertNotCalled(s.T(), "UpdateAccount", mock.Anything, mock.Anything)
}
