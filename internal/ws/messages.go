package ws

import (
	"encoding/json"

	"tridify/internal/domain"
)

// Inbound actions form a closed set; anything else is a protocol error.
const (
	ActionNewTransaction    = "new_transaction"
	ActionWithdrawalRequest = "withdrawal_request"
	ActionPing              = "ping"
	ActionSubscribeStats    = "subscribe_stats"
)

// Outbound event types.
const (
	EventInitialData       = "initial_data"
	EventTransactionUpdate = "transaction_update"
	EventWithdrawalUpdate  = "withdrawal_update"
	EventStatsUpdate       = "stats_update"
	EventPong              = "pong"
	EventError             = "error"
)

// Envelope is the inbound message frame.
type Envelope struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

// Event is the outbound message frame.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// InitialData is the payload sent to a freshly connected client.
type InitialData struct {
	Stats              domain.StatsSnapshot `json:"stats"`
	RecentTransactions []domain.Transaction `json:"recentTransactions"`
}

// ErrorData carries an error reason back to the originating client.
type ErrorData struct {
	Message string `json:"message"`
}

func errorEvent(reason string) Event {
	return Event{Type: EventError, Data: ErrorData{Message: reason}}
}
