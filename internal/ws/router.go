package ws

import (
	"encoding/json"

	"tridify/internal/stats"
	"tridify/internal/store"
	"tridify/pkg/logger"
	"tridify/pkg/validator"
)

const recentTransactionCount = 5

// Router dispatches inbound client commands. Mutating commands go
// through the store and trigger an immediate broadcast to every open
// connection; failures are reported to the originating client only.
type Router struct {
	store     *store.Store
	stats     *stats.Aggregator
	hub       *Hub
	validator *validator.Validator
	logger    logger.Logger
}

// NewRouter creates a Router over the shared store.
func NewRouter(s *store.Store, agg *stats.Aggregator, hub *Hub, val *validator.Validator, log logger.Logger) *Router {
	return &Router{
		store:     s,
		stats:     agg,
		hub:       hub,
		validator: val,
		logger:    log,
	}
}

// HandleConnect sends the initial snapshot and the most recent
// transactions to a newly registered client.
func (r *Router) HandleConnect(c *Client) {
	r.hub.SendTo(c, Event{
		Type: EventInitialData,
		Data: InitialData{
			Stats:              r.stats.Snapshot(),
			RecentTransactions: r.store.RecentTransactions(recentTransactionCount),
		},
	})
}

// HandleMessage parses and executes one inbound frame. Malformed frames
// and unknown actions get an error reply; the connection stays open.
func (r *Router) HandleMessage(c *Client, raw []byte) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Panic in message handler", map[string]interface{}{
				"client_id": c.ID,
				"panic":     rec,
			})
			r.hub.SendTo(c, errorEvent("internal error"))
		}
	}()

	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		r.hub.SendTo(c, errorEvent("invalid message format"))
		return
	}

	switch env.Action {
	case ActionNewTransaction:
		r.handleNewTransaction(c, env.Data)
	case ActionWithdrawalRequest:
		r.handleWithdrawalRequest(c, env.Data)
	case ActionPing:
		r.hub.SendTo(c, Event{Type: EventPong})
	case ActionSubscribeStats:
		// Stats are pushed to every connection; nothing to record.
	default:
		r.hub.SendTo(c, errorEvent("unknown action"))
	}
}

func (r *Router) handleNewTransaction(c *Client, data json.RawMessage) {
	var in store.CreateTransactionInput
	if err := json.Unmarshal(data, &in); err != nil {
		r.hub.SendTo(c, errorEvent("invalid message format"))
		return
	}

	if err := r.validator.Validate(&in); err != nil {
		r.hub.SendTo(c, errorEvent(err.Error()))
		return
	}

	tx, err := r.store.AppendTransaction(in)
	if err != nil {
		r.hub.SendTo(c, errorEvent(err.Error()))
		return
	}

	r.hub.Broadcast(Event{Type: EventTransactionUpdate, Data: tx})
}

func (r *Router) handleWithdrawalRequest(c *Client, data json.RawMessage) {
	var in store.CreateWithdrawalInput
	if err := json.Unmarshal(data, &in); err != nil {
		r.hub.SendTo(c, errorEvent("invalid message format"))
		return
	}

	wd, err := r.store.AppendWithdrawal(in)
	if err != nil {
		r.hub.SendTo(c, errorEvent(err.Error()))
		return
	}

	r.hub.Broadcast(Event{Type: EventWithdrawalUpdate, Data: wd})
}
