package ingest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/pocket-ledger/internal/domain"
	"github.com/dvloznov/pocket-ledger/internal/store"
)

// fakeStore is an in-memory TransactionStore. Writes whose description
// appears in failOn fail with a canned error.
type fakeStore struct {
	mu      sync.Mutex
	seq     int
	records map[string]domain.Transaction
	failOn  map[string]bool
}

func newFakeStore(failOn ...string) *fakeStore {
	fail := make(map[string]bool, len(failOn))
	for _, d := range failOn {
		fail[d] = true
	}
	return &fakeStore{records: make(map[string]domain.Transaction), failOn: fail}
}

func (s *fakeStore) Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failOn[tx.Description] {
		return domain.Transaction{}, fmt.Errorf("storage unavailable")
	}

	s.seq++
	tx.ID = fmt.Sprintf("tx-%d", s.seq)
	s.records[tx.ID] = tx
	return tx, nil
}

func (s *fakeStore) List(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Transaction, 0, len(s.records))
	for _, tx := range s.records {
		out = append(out, tx)
	}
	return out, nil
}

func (s *fakeStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

func (s *fakeStore) DeleteMany(ctx context.Context, ids []string) (store.BatchResult, error) {
	var result store.BatchResult
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, store.BatchError{ID: id, Message: err.Error()})
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func TestCommitAll_AllSucceed(t *testing.T) {
	st := newFakeStore()
	drafts := []domain.Transaction{
		{Description: "Rent"},
		{Description: "Coffee"},
	}

	result := CommitAll(context.Background(), st, drafts)

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 0, result.ErrorCount)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 2, st.count())

	// Results line up with the submitted drafts regardless of write
	// completion order.
	require.Len(t, result.Created, 2)
	assert.Equal(t, "Rent", result.Created[0].Description)
	assert.Equal(t, "Coffee", result.Created[1].Description)
	assert.NotEmpty(t, result.Created[0].ID)
}

func TestCommitAll_PartialFailure(t *testing.T) {
	st := newFakeStore("Coffee")
	drafts := []domain.Transaction{
		{Description: "Rent"},
		{Description: "Coffee"},
		{Description: "Groceries"},
	}

	result := CommitAll(context.Background(), st, drafts)

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, result.ErrorCount)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Index)
	assert.Equal(t, "storage unavailable", result.Errors[0].Message)

	// The siblings of the failed write still landed.
	assert.Equal(t, 2, st.count())
	assert.Empty(t, result.Created[1].ID)
	assert.NotEmpty(t, result.Created[0].ID)
	assert.NotEmpty(t, result.Created[2].ID)
}

func TestCommitAll_Empty(t *testing.T) {
	result := CommitAll(context.Background(), newFakeStore(), nil)

	assert.Equal(t, 0, result.SuccessCount)
	assert.Equal(t, 0, result.ErrorCount)
}
