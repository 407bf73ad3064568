package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/pocket-ledger/internal/domain"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
)

const defaultPrefix = "transactions"

// GCSStore keeps one JSON object per transaction under
// gs://<bucket>/<prefix>/<id>.json. It assumes Application Default
// Credentials are configured.
type GCSStore struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCSStore creates a store backed by the given bucket.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("NewGCSStore: bucket is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewGCSStore: creating storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, prefix: defaultPrefix}, nil
}

// Close closes the storage client connection.
func (s *GCSStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *GCSStore) objectName(id string) string {
	return path.Join(s.prefix, id+".json")
}

// Create implements TransactionStore. The store owns id assignment and
// timestamps; any values already on tx are overwritten.
func (s *GCSStore) Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	tx.ID = uuid.NewString()
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	data, err := json.Marshal(tx)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("Create: marshal transaction: %w", err)
	}

	obj := s.client.Bucket(s.bucket).Object(s.objectName(tx.ID))
	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return domain.Transaction{}, fmt.Errorf("Create: writing object %s: %w", s.objectName(tx.ID), err)
	}
	if err := w.Close(); err != nil {
		return domain.Transaction{}, fmt.Errorf("Create: finalizing object %s: %w", s.objectName(tx.ID), err)
	}

	return tx, nil
}

// List implements TransactionStore. It reads every record under the
// prefix; the caller gets the full set, there is no incremental merge.
func (s *GCSStore) List(ctx context.Context) ([]domain.Transaction, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.prefix + "/"})

	var txs []domain.Transaction
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("List: iter next: %w", err)
		}
		if !strings.HasSuffix(attrs.Name, ".json") {
			continue
		}

		tx, err := s.readObject(ctx, attrs.Name)
		if err != nil {
			return nil, fmt.Errorf("List: reading %s: %w", attrs.Name, err)
		}
		txs = append(txs, tx)
	}

	return txs, nil
}

func (s *GCSStore) readObject(ctx context.Context, name string) (domain.Transaction, error) {
	rc, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if err != nil {
		return domain.Transaction{}, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return domain.Transaction{}, err
	}

	var tx domain.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return domain.Transaction{}, err
	}
	return tx, nil
}

// Delete implements TransactionStore.
func (s *GCSStore) Delete(ctx context.Context, id string) error {
	err := s.client.Bucket(s.bucket).Object(s.objectName(id)).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("Delete: deleting object %s: %w", s.objectName(id), err)
	}
	return nil
}

// DeleteMany implements TransactionStore. Each id is deleted
// independently; one failure never aborts the rest.
func (s *GCSStore) DeleteMany(ctx context.Context, ids []string) (BatchResult, error) {
	var result BatchResult
	for _, id := range ids {
		if err := s.Delete(ctx, id); err != nil {
			result.ErrorCount++
			result.Errors = append(result.Errors, BatchError{ID: id, Message: err.Error()})
			continue
		}
		result.SuccessCount++
	}
	return result, nil
}

// Ensure GCSStore implements TransactionStore.
var _ TransactionStore = (*GCSStore)(nil)
