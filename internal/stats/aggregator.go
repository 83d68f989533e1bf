// Package stats computes aggregate views over the transaction store.
package stats

import (
	"time"

	"tridify/internal/domain"
	"tridify/internal/store"

	"github.com/shopspring/decimal"
)

const activeUserWindow = 24 * time.Hour

// conversionRate is a fixed placeholder until a real funnel exists.
var conversionRate = decimal.NewFromFloat(12.5)

// Aggregator recomputes summary statistics from the current store
// contents on every call. Nothing is memoized; freshness matters more
// than compute cost at this scale.
type Aggregator struct {
	store *store.Store
}

// New creates an Aggregator reading from the given store.
func New(s *store.Store) *Aggregator {
	return &Aggregator{store: s}
}

// Snapshot computes the stats as of the current wall clock.
func (a *Aggregator) Snapshot() domain.StatsSnapshot {
	return a.SnapshotAt(time.Now())
}

// SnapshotAt computes the stats relative to the given instant.
func (a *Aggregator) SnapshotAt(now time.Time) domain.StatsSnapshot {
	transactions := a.store.AllTransactions()

	snapshot := domain.StatsSnapshot{
		TotalRevenue:   decimal.Zero,
		TotalProfit:    decimal.Zero,
		ConversionRate: conversionRate,
	}

	windowStart := now.Add(-activeUserWindow)
	activeUsers := make(map[int64]struct{})

	for _, tx := range transactions {
		if tx.Status == domain.TransactionStatusCompleted {
			snapshot.TotalRevenue = snapshot.TotalRevenue.Add(tx.Amount)
			snapshot.TotalProfit = snapshot.TotalProfit.Add(tx.Profit)
			snapshot.TotalTransactions++
		}
		if tx.CreatedAt.After(windowStart) {
			activeUsers[tx.UserID] = struct{}{}
		}
		if sameDate(tx.CreatedAt, now) {
			snapshot.TodayTransactions++
		}
	}

	snapshot.ActiveUsers = len(activeUsers)
	return snapshot
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
