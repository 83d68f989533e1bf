// Package handler provides the HTTP API collaborating with the
// real-time subsystem over the same shared store.
package handler

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"tridify/internal/stats"
	"tridify/internal/store"
	"tridify/pkg/errors"
	"tridify/pkg/logger"
	"tridify/pkg/validator"

	"github.com/gorilla/mux"
)

const defaultPageSize = 10

// API serves the /api CRUD endpoints.
type API struct {
	store     *store.Store
	stats     *stats.Aggregator
	validator *validator.Validator
	logger    logger.Logger
}

// NewAPI creates the API handler set.
func NewAPI(s *store.Store, agg *stats.Aggregator, val *validator.Validator, log logger.Logger) *API {
	return &API{
		store:     s,
		stats:     agg,
		validator: val,
		logger:    log,
	}
}

// Register mounts all API routes on the given router.
func (h *API) Register(r *mux.Router) {
	r.HandleFunc("/stats", h.GetStats).Methods("GET")
	r.HandleFunc("/transactions", h.ListTransactions).Methods("GET")
	r.HandleFunc("/transactions", h.CreateTransaction).Methods("POST")
	r.HandleFunc("/transactions/{id:[0-9]+}", h.DeleteTransaction).Methods("DELETE")
	r.HandleFunc("/withdrawals", h.ListWithdrawals).Methods("GET")
	r.HandleFunc("/withdrawals", h.CreateWithdrawal).Methods("POST")
	r.HandleFunc("/withdrawals/{id:[0-9]+}/complete", h.CompleteWithdrawal).Methods("POST")
	r.HandleFunc("/users", h.ListUsers).Methods("GET")
}

// GetStats returns a fresh stats snapshot.
func (h *API) GetStats(w http.ResponseWriter, r *http.Request) {
	snapshot := h.stats.Snapshot()
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"data":      snapshot,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// CreateTransaction records a new transaction.
func (h *API) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var in store.CreateTransactionInput
	if !h.decode(w, r, &in) {
		return
	}

	if valErrs := h.validator.ValidateStructured(&in); valErrs != nil {
		h.respondValidationErrors(w, valErrs)
		return
	}

	tx, err := h.store.AppendTransaction(in)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"transaction": tx,
		"message":     "Transaction recorded",
	})
}

// ListTransactions returns a page of transactions, newest first.
func (h *API) ListTransactions(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePageQuery(r)
	status := r.URL.Query().Get("status")

	items, pagination := h.store.ListTransactions(status, page, limit)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"data":       items,
		"pagination": pagination,
	})
}

// DeleteTransaction removes a transaction by id.
func (h *API) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	tx, err := h.store.DeleteTransaction(id)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":     true,
		"message":     "Transaction deleted",
		"transaction": tx,
	})
}

// CreateWithdrawal records a withdrawal request against the available balance.
func (h *API) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	var in store.CreateWithdrawalInput
	if !h.decode(w, r, &in) {
		return
	}

	if valErrs := h.validator.ValidateStructured(&in); valErrs != nil {
		h.respondValidationErrors(w, valErrs)
		return
	}

	wd, err := h.store.AppendWithdrawal(in)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"withdrawal": wd,
		"message":    "Withdrawal request recorded",
	})
}

// ListWithdrawals returns a page of withdrawals, newest first.
func (h *API) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePageQuery(r)
	status := r.URL.Query().Get("status")

	items, pagination := h.store.ListWithdrawals(status, page, limit)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"data":       items,
		"pagination": pagination,
	})
}

// CompleteWithdrawal marks a pending withdrawal as settled.
func (h *API) CompleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid withdrawal id")
		return
	}

	var body struct {
		TxHash string `json:"tx_hash"`
	}
	if !h.decode(w, r, &body) {
		return
	}
	if body.TxHash == "" {
		h.respondError(w, http.StatusBadRequest, "tx_hash is required")
		return
	}

	wd, err := h.store.CompleteWithdrawal(id, body.TxHash)
	if err != nil {
		h.respondStoreError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"withdrawal": wd,
	})
}

// ListUsers returns users with their computed stats.
func (h *API) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit := parsePageQuery(r)

	items, pagination := h.store.ListUsers(page, limit)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"data":       items,
		"pagination": pagination,
	})
}

func (h *API) decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		if err == io.EOF {
			h.respondError(w, http.StatusBadRequest, "Request body is required")
			return false
		}
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (h *API) respondStoreError(w http.ResponseWriter, err error) {
	var ibe *errors.InsufficientBalanceError
	switch {
	case stderrors.As(err, &ibe):
		h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success":           false,
			"error":             fmt.Sprintf("Insufficient balance. Available: %s", ibe.Available.StringFixed(2)),
			"available_balance": ibe.Available,
		})
	case errors.IsValidation(err):
		h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
	case stderrors.Is(err, errors.ErrTransactionNotFound),
		stderrors.Is(err, errors.ErrWithdrawalNotFound):
		h.respondJSON(w, http.StatusNotFound, map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		})
	default:
		h.logger.Error("Unexpected store error", map[string]interface{}{
			"error": err.Error(),
		})
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func (h *API) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("json encode failed", map[string]interface{}{"error": err.Error()})
		_, _ = w.Write([]byte(`{"error":"response encoding failed"}`))
	}
}

func (h *API) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]interface{}{"success": false, "error": message})
}

func (h *API) respondValidationErrors(w http.ResponseWriter, errs map[string]string) {
	h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"success":           false,
		"error":             "Validation failed",
		"validation_errors": errs,
	})
}

func parsePageQuery(r *http.Request) (page, limit int) {
	page, limit = 1, defaultPageSize
	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return page, limit
}
