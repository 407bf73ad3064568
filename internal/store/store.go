package store

import (
	"context"
	"errors"

	"github.com/dvloznov/pocket-ledger/internal/domain"
)

// ErrNotFound is returned when a transaction id has no stored record.
var ErrNotFound = errors.New("transaction not found")

// TransactionStore persists canonical transactions as flat,
// key-per-record blobs. There is no cross-record atomicity: every
// operation touches exactly one record, and batch operations report
// partial results instead of rolling back.
type TransactionStore interface {
	// Create assigns an id and timestamps and persists the transaction,
	// returning the stored shape.
	Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)

	// List returns every stored transaction.
	List(ctx context.Context) ([]domain.Transaction, error)

	// Delete removes one transaction. Returns ErrNotFound if the id has
	// no record.
	Delete(ctx context.Context, id string) error

	// DeleteMany removes several transactions, tolerating per-id
	// failure and aggregating the outcome.
	DeleteMany(ctx context.Context, ids []string) (BatchResult, error)
}

// BatchError attributes one failure inside a batch operation to the
// record it belongs to.
type BatchError struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// BatchResult aggregates the outcome of a partial-failure-tolerant
// batch operation.
type BatchResult struct {
	SuccessCount int          `json:"successCount"`
	ErrorCount   int          `json:"errorCount"`
	Errors       []BatchError `json:"errors,omitempty"`
}
