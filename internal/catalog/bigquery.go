package catalog

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/pocket-ledger/internal/domain"
	"google.golang.org/api/iterator"
)

const (
	datasetID           = "ledger"
	categoriesTable     = "categories"
	paymentMethodsTable = "payment_methods"
)

// CategoryRow mirrors the ledger.categories table schema.
type CategoryRow struct {
	CategoryID string            `bigquery:"category_id"` // REQUIRED
	Name       string            `bigquery:"name"`        // REQUIRED
	Type       string            `bigquery:"type"`        // REQUIRED ("income" or "expense")
	IsActive   bigquery.NullBool `bigquery:"is_active"`   // NULLABLE
}

// PaymentMethodRow mirrors the ledger.payment_methods table schema.
type PaymentMethodRow struct {
	PaymentMethodID string            `bigquery:"payment_method_id"` // REQUIRED
	Name            string            `bigquery:"name"`              // REQUIRED
	Type            string            `bigquery:"type"`              // NULLABLE free-text label
	IsActive        bigquery.NullBool `bigquery:"is_active"`         // NULLABLE
}

// BigQueryRepository reads reference data from BigQuery. It holds a
// shared client to avoid creating a new connection per operation.
type BigQueryRepository struct {
	client *bigquery.Client
}

// NewBigQueryRepository creates a repository with a shared BigQuery client.
func NewBigQueryRepository(ctx context.Context, projectID string) (*BigQueryRepository, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryRepository: creating client: %w", err)
	}
	return &BigQueryRepository{client: client}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ListCategories delegates to ListCategoriesWithClient with the shared client.
func (r *BigQueryRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return ListCategoriesWithClient(ctx, r.client)
}

// ListPaymentMethods delegates to ListPaymentMethodsWithClient with the shared client.
func (r *BigQueryRepository) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	return ListPaymentMethodsWithClient(ctx, r.client)
}

// ListCategoriesWithClient returns all active categories ordered by name
// using the provided BigQuery client.
func ListCategoriesWithClient(ctx context.Context, client *bigquery.Client) ([]domain.Category, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
		  category_id,
		  name,
		  type,
		  is_active
		FROM %s.%s
		WHERE is_active IS NOT FALSE
		ORDER BY name
	`, datasetID, categoriesTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: query read: %w", err)
	}

	var cats []domain.Category
	for {
		var r CategoryRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListCategories: iter next: %w", err)
		}
		cats = append(cats, domain.Category{
			ID:   r.CategoryID,
			Name: r.Name,
			Type: domain.TransactionType(r.Type),
		})
	}

	return cats, nil
}

// ListPaymentMethodsWithClient returns all active payment methods
// ordered by name using the provided BigQuery client.
func ListPaymentMethodsWithClient(ctx context.Context, client *bigquery.Client) ([]domain.PaymentMethod, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
		  payment_method_id,
		  name,
		  type,
		  is_active
		FROM %s.%s
		WHERE is_active IS NOT FALSE
		ORDER BY name
	`, datasetID, paymentMethodsTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListPaymentMethods: query read: %w", err)
	}

	var pms []domain.PaymentMethod
	for {
		var r PaymentMethodRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListPaymentMethods: iter next: %w", err)
		}
		pms = append(pms, domain.PaymentMethod{
			ID:   r.PaymentMethodID,
			Name: r.Name,
			Type: r.Type,
		})
	}

	return pms, nil
}

// Ensure BigQueryRepository implements Repository.
var _ Repository = (*BigQueryRepository)(nil)
