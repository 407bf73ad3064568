package ingest

import (
	"context"
	"sync"

	"github.com/dvloznov/pocket-ledger/internal/domain"
	"github.com/dvloznov/pocket-ledger/internal/store"
)

// CommitError attributes one failed store write to the draft it
// belongs to, by index into the submitted slice.
type CommitError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// CommitResult aggregates one bulk commit. Partial success is the
// expected shape, not an error: SuccessCount + ErrorCount always equals
// the number of submitted drafts.
type CommitResult struct {
	SuccessCount int           `json:"successCount"`
	ErrorCount   int           `json:"errorCount"`
	Errors       []CommitError `json:"errors,omitempty"`

	// Created holds the stored transaction for each successful index;
	// failed indexes keep the zero value.
	Created []domain.Transaction `json:"-"`
}

// CommitAll submits every draft to the store concurrently and waits for
// all of them to settle. One write's failure never cancels or retries
// the others, and completion order is irrelevant: each result is zipped
// back to its draft by index, so latency is bounded by the slowest
// single write.
func CommitAll(ctx context.Context, st store.TransactionStore, drafts []domain.Transaction) CommitResult {
	created := make([]domain.Transaction, len(drafts))
	errs := make([]error, len(drafts))

	var wg sync.WaitGroup
	for i, draft := range drafts {
		wg.Add(1)
		go func(i int, draft domain.Transaction) {
			defer wg.Done()
			tx, err := st.Create(ctx, draft)
			if err != nil {
				errs[i] = err
				return
			}
			created[i] = tx
		}(i, draft)
	}
	wg.Wait()

	result := CommitResult{Created: created}
	for i, err := range errs {
		if err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, CommitError{Index: i, Message: err.Error()})
			continue
		}
		result.SuccessCount++
	}

	return result
}
