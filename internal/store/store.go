// Package store holds the in-memory transaction and withdrawal records.
// The Store is the single writer authority for both collections; every
// other component reads from it or appends through it.
package store

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"tridify/internal/domain"
	"tridify/pkg/errors"
	"tridify/pkg/logger"

	"github.com/shopspring/decimal"
)

const (
	defaultCurrency    = "USD"
	defaultDescription = "3D conversion service payment"
	defaultPageSize    = 10
)

// CreateTransactionInput is the input for AppendTransaction.
type CreateTransactionInput struct {
	UserID      int64           `json:"user_id"`
	Amount      decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
}

// CreateWithdrawalInput is the input for AppendWithdrawal.
type CreateWithdrawalInput struct {
	Amount        decimal.Decimal `json:"amount" validate:"required,gt=0"`
	Currency      string          `json:"currency" validate:"required"`
	WalletAddress string          `json:"wallet_address" validate:"required"`
	Network       string          `json:"network"`
}

// Store is the process-wide mutable state. All reads and mutations are
// serialized behind one mutex so that a withdrawal's balance check and
// its append form a single atomic unit.
type Store struct {
	mu           sync.RWMutex
	transactions []domain.Transaction
	withdrawals  []domain.Withdrawal
	users        []domain.User
	profitRate   decimal.Decimal
	logger       logger.Logger
}

// New creates an empty Store with the given profit rate.
func New(profitRate decimal.Decimal, log logger.Logger) *Store {
	return &Store{
		profitRate: profitRate,
		logger:     log,
	}
}

// AppendTransaction validates and records a new transaction. The profit
// is fixed at creation time and the record is stored most-recent-first.
func (s *Store) AppendTransaction(in CreateTransactionInput) (*domain.Transaction, error) {
	if !in.Amount.IsPositive() {
		return nil, errors.NewValidation("amount", "must be greater than zero")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userID := in.UserID
	if userID == 0 {
		userID = rand.Int63n(1000) + 100
	}
	currency := in.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	description := in.Description
	if description == "" {
		description = defaultDescription
	}

	tx := domain.Transaction{
		ID:          s.nextTransactionID(),
		UserID:      userID,
		Amount:      in.Amount,
		Profit:      in.Amount.Mul(s.profitRate).Round(2),
		Currency:    currency,
		Description: description,
		Status:      domain.TransactionStatusCompleted,
		CreatedAt:   time.Now(),
	}

	s.transactions = append([]domain.Transaction{tx}, s.transactions...)

	s.logger.Info("Transaction recorded", map[string]interface{}{
		"id":     tx.ID,
		"amount": tx.Amount.String(),
		"profit": tx.Profit.String(),
	})

	return &tx, nil
}

// AppendWithdrawal validates a withdrawal request against the available
// balance and records it. The balance check and the append happen under
// the same lock; a rejected request leaves the store unchanged.
func (s *Store) AppendWithdrawal(in CreateWithdrawalInput) (*domain.Withdrawal, error) {
	if in.Amount.IsZero() || !in.Amount.IsPositive() {
		return nil, errors.NewValidation("amount", "must be greater than zero")
	}
	if in.Currency == "" {
		return nil, errors.NewValidation("currency", "is required")
	}
	if in.WalletAddress == "" {
		return nil, errors.NewValidation("wallet_address", "is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	available := s.availableBalanceLocked()
	if in.Amount.GreaterThan(available) {
		return nil, &errors.InsufficientBalanceError{
			Requested: in.Amount,
			Available: available,
		}
	}

	wd := domain.Withdrawal{
		ID:            s.nextWithdrawalID(),
		Amount:        in.Amount,
		Currency:      in.Currency,
		WalletAddress: in.WalletAddress,
		Network:       inferNetwork(in.Network, in.Currency),
		Status:        domain.WithdrawalStatusPending,
		CreatedAt:     time.Now(),
	}

	s.withdrawals = append(s.withdrawals, wd)

	s.logger.Info("Withdrawal requested", map[string]interface{}{
		"id":      wd.ID,
		"amount":  wd.Amount.String(),
		"network": wd.Network,
	})

	return &wd, nil
}

// CompleteTransaction transitions a pending transaction to completed.
func (s *Store) CompleteTransaction(id int64) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.transactions {
		if s.transactions[i].ID == id {
			s.transactions[i].Status = domain.TransactionStatusCompleted
			tx := s.transactions[i]
			return &tx, nil
		}
	}
	return nil, errors.ErrTransactionNotFound
}

// CompleteWithdrawal transitions a pending withdrawal to completed,
// stamping the completion time and the settlement hash.
func (s *Store) CompleteWithdrawal(id int64, txHash string) (*domain.Withdrawal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.withdrawals {
		if s.withdrawals[i].ID == id {
			now := time.Now()
			s.withdrawals[i].Status = domain.WithdrawalStatusCompleted
			s.withdrawals[i].CompletedAt = &now
			s.withdrawals[i].TxHash = &txHash
			wd := s.withdrawals[i]
			return &wd, nil
		}
	}
	return nil, errors.ErrWithdrawalNotFound
}

// DeleteTransaction removes a transaction by identifier.
func (s *Store) DeleteTransaction(id int64) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.transactions {
		if s.transactions[i].ID == id {
			tx := s.transactions[i]
			s.transactions = append(s.transactions[:i], s.transactions[i+1:]...)
			return &tx, nil
		}
	}
	return nil, errors.ErrTransactionNotFound
}

// GetTransaction returns a transaction by identifier.
func (s *Store) GetTransaction(id int64) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.transactions {
		if s.transactions[i].ID == id {
			tx := s.transactions[i]
			return &tx, nil
		}
	}
	return nil, errors.ErrTransactionNotFound
}

// ListTransactions returns a page of transactions sorted newest-first,
// optionally filtered by status. Out-of-range pages yield an empty page.
func (s *Store) ListTransactions(status string, page, limit int) ([]domain.Transaction, domain.Pagination) {
	s.mu.RLock()
	filtered := make([]domain.Transaction, 0, len(s.transactions))
	for _, tx := range s.transactions {
		if status == "" || string(tx.Status) == status {
			filtered = append(filtered, tx)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].ID > filtered[j].ID
		}
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	start, end, pagination := paginate(len(filtered), page, limit)
	return filtered[start:end], pagination
}

// ListWithdrawals returns a page of withdrawals sorted newest-first,
// optionally filtered by status.
func (s *Store) ListWithdrawals(status string, page, limit int) ([]domain.Withdrawal, domain.Pagination) {
	s.mu.RLock()
	filtered := make([]domain.Withdrawal, 0, len(s.withdrawals))
	for _, wd := range s.withdrawals {
		if status == "" || string(wd.Status) == status {
			filtered = append(filtered, wd)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].ID > filtered[j].ID
		}
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	start, end, pagination := paginate(len(filtered), page, limit)
	return filtered[start:end], pagination
}

// ListUsers returns a page of users with their computed stats.
func (s *Store) ListUsers(page, limit int) ([]domain.UserWithStats, domain.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start, end, pagination := paginate(len(s.users), page, limit)

	result := make([]domain.UserWithStats, 0, end-start)
	for _, u := range s.users[start:end] {
		stats := domain.UserStats{
			TotalSpent:  decimal.Zero,
			TotalProfit: decimal.Zero,
		}
		for _, tx := range s.transactions {
			if tx.UserID != u.ID {
				continue
			}
			stats.TotalTransactions++
			stats.TotalSpent = stats.TotalSpent.Add(tx.Amount)
			stats.TotalProfit = stats.TotalProfit.Add(tx.Profit)
			if stats.LastActivity == nil || tx.CreatedAt.After(*stats.LastActivity) {
				t := tx.CreatedAt
				stats.LastActivity = &t
			}
		}
		result = append(result, domain.UserWithStats{User: u, Stats: stats})
	}

	return result, pagination
}

// RecentTransactions returns up to n of the newest transactions.
func (s *Store) RecentTransactions(n int) []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n > len(s.transactions) {
		n = len(s.transactions)
	}
	recent := make([]domain.Transaction, n)
	copy(recent, s.transactions[:n])
	return recent
}

// AllTransactions returns a copy of every transaction, newest-first.
func (s *Store) AllTransactions() []domain.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]domain.Transaction, len(s.transactions))
	copy(all, s.transactions)
	return all
}

// AvailableBalance is the completed-transaction profit sum minus the
// pending-withdrawal amount sum.
func (s *Store) AvailableBalance() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.availableBalanceLocked()
}

func (s *Store) availableBalanceLocked() decimal.Decimal {
	profit := decimal.Zero
	for _, tx := range s.transactions {
		if tx.Status == domain.TransactionStatusCompleted {
			profit = profit.Add(tx.Profit)
		}
	}

	// Only pending withdrawals count as deductions; completed ones fall
	// out of the formula entirely (see DESIGN.md).
	pending := decimal.Zero
	for _, wd := range s.withdrawals {
		if wd.Status == domain.WithdrawalStatusPending {
			pending = pending.Add(wd.Amount)
		}
	}

	return profit.Sub(pending)
}

func (s *Store) nextTransactionID() int64 {
	var max int64
	for _, tx := range s.transactions {
		if tx.ID > max {
			max = tx.ID
		}
	}
	return max + 1
}

func (s *Store) nextWithdrawalID() int64 {
	var max int64
	for _, wd := range s.withdrawals {
		if wd.ID > max {
			max = wd.ID
		}
	}
	return max + 1
}

// inferNetwork derives the settlement network from the currency string
// when no explicit network is given. Currencies like "USDT-TRC20" carry
// the network in their name.
func inferNetwork(network, currency string) domain.Network {
	if network != "" {
		return domain.Network(network)
	}
	if strings.Contains(currency, "TRC20") {
		return domain.NetworkTRC20
	}
	return domain.NetworkERC20
}

func paginate(total, page, limit int) (start, end int, p domain.Pagination) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}

	totalPages := (total + limit - 1) / limit

	start = (page - 1) * limit
	if start > total {
		start = total
	}
	end = start + limit
	if end > total {
		end = total
	}

	return start, end, domain.Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
