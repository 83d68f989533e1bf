// Package domain defines the core tridify models.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionStatus represents transaction lifecycle states.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
)

// WithdrawalStatus represents withdrawal lifecycle states.
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
)

// Network identifies the settlement network of a withdrawal.
type Network string

const (
	NetworkTRC20 Network = "TRC20"
	NetworkERC20 Network = "ERC20"
)

// Transaction represents a paid 3D conversion order.
type Transaction struct {
	ID          int64             `json:"id"`
	UserID      int64             `json:"user_id"`
	Amount      decimal.Decimal   `json:"amount"`
	Profit      decimal.Decimal   `json:"profit"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Status      TransactionStatus `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

// Withdrawal represents a profit withdrawal request.
type Withdrawal struct {
	ID            int64            `json:"id"`
	Amount        decimal.Decimal  `json:"amount"`
	Currency      string           `json:"currency"`
	WalletAddress string           `json:"wallet_address"`
	Network       Network          `json:"network"`
	Status        WithdrawalStatus `json:"status"`
	TxHash        *string          `json:"tx_hash"`
	CreatedAt     time.Time        `json:"created_at"`
	CompletedAt   *time.Time       `json:"completed_at"`
}

// User represents a platform customer.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// UserStats carries per-user aggregates attached to user listings.
type UserStats struct {
	TotalTransactions int             `json:"totalTransactions"`
	TotalSpent        decimal.Decimal `json:"totalSpent"`
	TotalProfit       decimal.Decimal `json:"totalProfit"`
	LastActivity      *time.Time      `json:"lastActivity"`
}

// UserWithStats is the /api/users response item.
type UserWithStats struct {
	User
	Stats UserStats `json:"stats"`
}

// StatsSnapshot is a freshly computed aggregate view of store state.
// It is never cached across mutations.
type StatsSnapshot struct {
	TotalRevenue      decimal.Decimal `json:"totalRevenue"`
	TotalProfit       decimal.Decimal `json:"totalProfit"`
	TotalTransactions int             `json:"totalTransactions"`
	ActiveUsers       int             `json:"activeUsers"`
	TodayTransactions int             `json:"todayTransactions"`
	ConversionRate    decimal.Decimal `json:"conversionRate"`
}

// Pagination describes a page of a list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}
