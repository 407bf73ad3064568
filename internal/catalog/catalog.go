package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/pocket-ledger/internal/domain"
)

// Repository loads reference data from wherever the settings workflow
// keeps it. The ingestion pipeline only ever reads the catalog.
type Repository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error)
}

// Catalog is an immutable snapshot of the reference data used for name
// resolution. Stale snapshots are fine: a name that no longer exists
// simply fails to resolve, it never crashes the pipeline.
type Catalog struct {
	Categories     []domain.Category
	PaymentMethods []domain.PaymentMethod
}

// Load fetches a catalog snapshot through the repository.
func Load(ctx context.Context, repo Repository) (Catalog, error) {
	cats, err := repo.ListCategories(ctx)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog.Load: list categories: %w", err)
	}
	pms, err := repo.ListPaymentMethods(ctx)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog.Load: list payment methods: %w", err)
	}
	return Catalog{Categories: cats, PaymentMethods: pms}, nil
}

// CategoryByName looks up a category by exact, case-insensitive name
// match within the categories of the given transaction type. Leading
// and trailing whitespace on the guess is ignored.
func (c Catalog) CategoryByName(name string, txType domain.TransactionType) (domain.Category, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return domain.Category{}, false
	}
	for _, cat := range c.Categories {
		if cat.Type == txType && strings.EqualFold(cat.Name, trimmed) {
			return cat, true
		}
	}
	return domain.Category{}, false
}

// PaymentMethodByName looks up a payment method by exact,
// case-insensitive name match. All payment methods apply to expenses
// only, so there is no type filter.
func (c Catalog) PaymentMethodByName(name string) (domain.PaymentMethod, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return domain.PaymentMethod{}, false
	}
	for _, pm := range c.PaymentMethods {
		if strings.EqualFold(pm.Name, trimmed) {
			return pm, true
		}
	}
	return domain.PaymentMethod{}, false
}

// CategoryNames returns the names of all categories of the given type,
// in catalog order. Used to build model prompts.
func (c Catalog) CategoryNames(txType domain.TransactionType) []string {
	var names []string
	for _, cat := range c.Categories {
		if cat.Type == txType {
			names = append(names, cat.Name)
		}
	}
	return names
}

// PaymentMethodNames returns the names of all payment methods in
// catalog order. Used to build model prompts.
func (c Catalog) PaymentMethodNames() []string {
	names := make([]string, 0, len(c.PaymentMethods))
	for _, pm := range c.PaymentMethods {
		names = append(names, pm.Name)
	}
	return names
}
