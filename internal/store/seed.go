package store

import (
	"time"

	"tridify/internal/domain"

	"github.com/shopspring/decimal"
)

// Seed installs the demo dataset: two completed transactions, one
// pending, and three users.
func (s *Store) Seed() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions = []domain.Transaction{
		{
			ID:          3,
			UserID:      103,
			Amount:      decimal.NewFromInt(200),
			Profit:      decimal.NewFromInt(60),
			Currency:    "USD",
			Description: "Architecture photo to 3D conversion",
			Status:      domain.TransactionStatusPending,
			CreatedAt:   time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC),
		},
		{
			ID:          2,
			UserID:      102,
			Amount:      decimal.NewFromInt(150),
			Profit:      decimal.NewFromInt(45),
			Currency:    "USD",
			Description: "Product photo to 3D conversion",
			Status:      domain.TransactionStatusCompleted,
			CreatedAt:   time.Date(2024, 1, 15, 11, 15, 0, 0, time.UTC),
		},
		{
			ID:          1,
			UserID:      101,
			Amount:      decimal.NewFromInt(100),
			Profit:      decimal.NewFromInt(30),
			Currency:    "USD",
			Description: "Portrait photo to 3D conversion",
			Status:      domain.TransactionStatusCompleted,
			CreatedAt:   time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		},
	}

	s.users = []domain.User{
		{ID: 101, Username: "user1", Email: "user1@example.com"},
		{ID: 102, Username: "user2", Email: "user2@example.com"},
		{ID: 103, Username: "user3", Email: "user3@example.com"},
	}
}
