package store

import (
	"testing"

	"tridify/internal/domain"
	"tridify/pkg/errors"
	"tridify/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *Store {
	return New(decimal.NewFromFloat(0.30), logger.NewNop())
}

func TestAppendTransaction_ProfitAndStatus(t *testing.T) {
	s := newTestStore()

	tests := []struct {
		amount string
		profit string
	}{
		{"100", "30"},
		{"150", "45"},
		{"33.33", "10"},
		{"0.01", "0"},
	}

	for _, tc := range tests {
		amount, err := decimal.NewFromString(tc.amount)
		require.NoError(t, err)

		tx, err := s.AppendTransaction(CreateTransactionInput{UserID: 7, Amount: amount})
		require.NoError(t, err)

		expected, err := decimal.NewFromString(tc.profit)
		require.NoError(t, err)

		assert.True(t, tx.Profit.Equal(expected),
			"amount %s: expected profit %s, got %s", tc.amount, tc.profit, tx.Profit)
		assert.Equal(t, domain.TransactionStatusCompleted, tx.Status)
	}
}

func TestAppendTransaction_Defaults(t *testing.T) {
	s := newTestStore()

	tx, err := s.AppendTransaction(CreateTransactionInput{Amount: decimal.NewFromInt(50)})
	require.NoError(t, err)

	assert.Equal(t, "USD", tx.Currency)
	assert.NotEmpty(t, tx.Description)
	assert.NotZero(t, tx.UserID)
	assert.Equal(t, int64(1), tx.ID)

	tx2, err := s.AppendTransaction(CreateTransactionInput{Amount: decimal.NewFromInt(10)})
	require.NoError(t, err)
	assert.Equal(t, int64(2), tx2.ID)
}

func TestAppendTransaction_RejectsNonPositiveAmount(t *testing.T) {
	s := newTestStore()

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := s.AppendTransaction(CreateTransactionInput{Amount: amount})
		require.Error(t, err)
		assert.True(t, errors.IsValidation(err))
	}

	assert.Empty(t, s.AllTransactions())
}

func TestAppendWithdrawal_RequiredFields(t *testing.T) {
	s := newTestStore()

	tests := []struct {
		name  string
		input CreateWithdrawalInput
	}{
		{"missing amount", CreateWithdrawalInput{Currency: "USDT", WalletAddress: "0xabc"}},
		{"missing currency", CreateWithdrawalInput{Amount: decimal.NewFromInt(10), WalletAddress: "0xabc"}},
		{"missing wallet", CreateWithdrawalInput{Amount: decimal.NewFromInt(10), Currency: "USDT"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.AppendWithdrawal(tc.input)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}
}

func TestWithdrawalBalanceGate(t *testing.T) {
	s := newTestStore()
	s.Seed() // 100 + 150 completed, 200 pending

	// Available balance: 30 + 45 completed profit, no pending withdrawals.
	assert.True(t, s.AvailableBalance().Equal(decimal.NewFromInt(75)),
		"expected 75, got %s", s.AvailableBalance())

	// Over the balance: rejected, store unchanged.
	_, err := s.AppendWithdrawal(CreateWithdrawalInput{
		Amount:        decimal.NewFromInt(100),
		Currency:      "USDT",
		WalletAddress: "0xabc",
	})
	require.Error(t, err)

	var ibe *errors.InsufficientBalanceError
	require.ErrorAs(t, err, &ibe)
	assert.True(t, ibe.Available.Equal(decimal.NewFromInt(75)))

	_, pagination := s.ListWithdrawals("", 1, 10)
	assert.Equal(t, 0, pagination.Total)

	// Within the balance: accepted as pending.
	wd, err := s.AppendWithdrawal(CreateWithdrawalInput{
		Amount:        decimal.NewFromInt(50),
		Currency:      "USDT",
		WalletAddress: "0xabc",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusPending, wd.Status)
	assert.Nil(t, wd.TxHash)
	assert.Nil(t, wd.CompletedAt)

	// The pending withdrawal now reduces the available balance.
	assert.True(t, s.AvailableBalance().Equal(decimal.NewFromInt(25)))
}

func TestCompleteWithdrawal(t *testing.T) {
	s := newTestStore()
	s.Seed()

	wd, err := s.AppendWithdrawal(CreateWithdrawalInput{
		Amount:        decimal.NewFromInt(50),
		Currency:      "USDT",
		WalletAddress: "0xabc",
	})
	require.NoError(t, err)

	completed, err := s.CompleteWithdrawal(wd.ID, "0xhash")
	require.NoError(t, err)
	assert.Equal(t, domain.WithdrawalStatusCompleted, completed.Status)
	require.NotNil(t, completed.TxHash)
	assert.Equal(t, "0xhash", *completed.TxHash)
	assert.NotNil(t, completed.CompletedAt)

	// Completed withdrawals no longer count as deductions.
	assert.True(t, s.AvailableBalance().Equal(decimal.NewFromInt(75)))

	_, err = s.CompleteWithdrawal(999, "0xhash")
	assert.ErrorIs(t, err, errors.ErrWithdrawalNotFound)
}

func TestNetworkInference(t *testing.T) {
	s := newTestStore()
	s.Seed()

	tests := []struct {
		currency string
		network  string
		expected domain.Network
	}{
		{"USDT-TRC20", "", domain.NetworkTRC20},
		{"USDT", "", domain.NetworkERC20},
		{"USD", "", domain.NetworkERC20},
		{"USDT", "TRC20", domain.NetworkTRC20},
	}

	for _, tc := range tests {
		wd, err := s.AppendWithdrawal(CreateWithdrawalInput{
			Amount:        decimal.NewFromInt(1),
			Currency:      tc.currency,
			WalletAddress: "0xabc",
			Network:       tc.network,
		})
		require.NoError(t, err)
		assert.Equal(t, tc.expected, wd.Network, "currency %q", tc.currency)
	}
}

func TestListTransactions_Pagination(t *testing.T) {
	s := newTestStore()

	for _, amount := range []int64{100, 150, 200} {
		_, err := s.AppendTransaction(CreateTransactionInput{UserID: 7, Amount: decimal.NewFromInt(amount)})
		require.NoError(t, err)
	}

	// Page 2 with size 1 over 3 records, newest first: the second-newest.
	page, pagination := s.ListTransactions("", 2, 1)
	require.Len(t, page, 1)
	assert.Equal(t, int64(2), page[0].ID)
	assert.True(t, page[0].Amount.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 3, pagination.Total)
	assert.Equal(t, 3, pagination.TotalPages)

	// Out-of-range page: empty, not an error.
	page, pagination = s.ListTransactions("", 9, 10)
	assert.Empty(t, page)
	assert.Equal(t, 3, pagination.Total)
}

func TestListTransactions_StatusFilter(t *testing.T) {
	s := newTestStore()
	s.Seed()

	completed, pagination := s.ListTransactions("completed", 1, 10)
	assert.Len(t, completed, 2)
	assert.Equal(t, 2, pagination.Total)

	pending, _ := s.ListTransactions("pending", 1, 10)
	require.Len(t, pending, 1)
	assert.Equal(t, int64(3), pending[0].ID)
}

func TestDeleteTransaction(t *testing.T) {
	s := newTestStore()
	s.Seed()

	tx, err := s.DeleteTransaction(2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), tx.ID)

	_, err = s.GetTransaction(2)
	assert.ErrorIs(t, err, errors.ErrTransactionNotFound)

	_, err = s.DeleteTransaction(2)
	assert.ErrorIs(t, err, errors.ErrTransactionNotFound)
}

func TestCompleteTransaction(t *testing.T) {
	s := newTestStore()
	s.Seed()

	tx, err := s.CompleteTransaction(3)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, tx.Status)

	// Its profit now counts toward the available balance.
	assert.True(t, s.AvailableBalance().Equal(decimal.NewFromInt(135)))
}

func TestRecentTransactions(t *testing.T) {
	s := newTestStore()

	for i := int64(1); i <= 7; i++ {
		_, err := s.AppendTransaction(CreateTransactionInput{UserID: i, Amount: decimal.NewFromInt(i * 10)})
		require.NoError(t, err)
	}

	recent := s.RecentTransactions(5)
	require.Len(t, recent, 5)
	assert.Equal(t, int64(7), recent[0].ID)
	assert.Equal(t, int64(3), recent[4].ID)
}

func TestListUsers_Stats(t *testing.T) {
	s := newTestStore()
	s.Seed()

	users, pagination := s.ListUsers(1, 10)
	require.Len(t, users, 3)
	assert.Equal(t, 3, pagination.Total)

	first := users[0]
	assert.Equal(t, int64(101), first.ID)
	assert.Equal(t, 1, first.Stats.TotalTransactions)
	assert.True(t, first.Stats.TotalSpent.Equal(decimal.NewFromInt(100)))
	assert.True(t, first.Stats.TotalProfit.Equal(decimal.NewFromInt(30)))
	require.NotNil(t, first.Stats.LastActivity)
}
