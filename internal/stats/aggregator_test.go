package stats

import (
	"testing"
	"time"

	"tridify/internal/store"
	"tridify/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *store.Store {
	return store.New(decimal.NewFromFloat(0.30), logger.NewNop())
}

func TestSnapshot_SeededScenario(t *testing.T) {
	s := newTestStore()
	s.Seed() // 100 + 150 completed, 200 pending, all dated 2024-01-15

	agg := New(s)
	snapshot := agg.Snapshot()

	// Only completed transactions count toward revenue and profit.
	assert.True(t, snapshot.TotalRevenue.Equal(decimal.NewFromInt(250)),
		"expected revenue 250, got %s", snapshot.TotalRevenue)
	assert.True(t, snapshot.TotalProfit.Equal(decimal.NewFromInt(75)),
		"expected profit 75, got %s", snapshot.TotalProfit)
	assert.Equal(t, 2, snapshot.TotalTransactions)

	// The seeded records are far outside the 24h window and today.
	assert.Equal(t, 0, snapshot.ActiveUsers)
	assert.Equal(t, 0, snapshot.TodayTransactions)

	assert.True(t, snapshot.ConversionRate.Equal(decimal.NewFromFloat(12.5)))
}

func TestSnapshot_SumsExactly(t *testing.T) {
	s := newTestStore()
	agg := New(s)

	amounts := []string{"100", "150", "19.99", "0.05"}
	expectedRevenue := decimal.Zero
	expectedProfit := decimal.Zero
	for i, a := range amounts {
		amount, err := decimal.NewFromString(a)
		require.NoError(t, err)

		tx, err := s.AppendTransaction(store.CreateTransactionInput{
			UserID: int64(i + 1),
			Amount: amount,
		})
		require.NoError(t, err)

		expectedRevenue = expectedRevenue.Add(amount)
		expectedProfit = expectedProfit.Add(tx.Profit)
	}

	snapshot := agg.Snapshot()
	assert.True(t, snapshot.TotalRevenue.Equal(expectedRevenue))
	assert.True(t, snapshot.TotalProfit.Equal(expectedProfit))
	assert.Equal(t, len(amounts), snapshot.TotalTransactions)
	assert.Equal(t, len(amounts), snapshot.TodayTransactions)
}

func TestSnapshot_ActiveUsersWindow(t *testing.T) {
	s := newTestStore()
	agg := New(s)

	// Two transactions for the same user, one for another.
	for _, userID := range []int64{7, 7, 8} {
		_, err := s.AppendTransaction(store.CreateTransactionInput{
			UserID: userID,
			Amount: decimal.NewFromInt(10),
		})
		require.NoError(t, err)
	}

	now := time.Now()
	assert.Equal(t, 2, agg.SnapshotAt(now).ActiveUsers)

	// A day later nobody is active anymore, but the totals remain.
	later := agg.SnapshotAt(now.Add(25 * time.Hour))
	assert.Equal(t, 0, later.ActiveUsers)
	assert.Equal(t, 3, later.TotalTransactions)
	assert.Equal(t, 0, later.TodayTransactions)
}

func TestSnapshot_NeverCached(t *testing.T) {
	s := newTestStore()
	agg := New(s)

	assert.Equal(t, 0, agg.Snapshot().TotalTransactions)

	_, err := s.AppendTransaction(store.CreateTransactionInput{
		UserID: 1,
		Amount: decimal.NewFromInt(42),
	})
	require.NoError(t, err)

	// The very next snapshot reflects the mutation.
	snapshot := agg.Snapshot()
	assert.Equal(t, 1, snapshot.TotalTransactions)
	assert.True(t, snapshot.TotalRevenue.Equal(decimal.NewFromInt(42)))
}
