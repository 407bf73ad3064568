package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dvloznov/pocket-ledger/internal/catalog"
	"github.com/dvloznov/pocket-ledger/internal/domain"
)

// testCatalog is the reference-data snapshot shared by the tests in
// this package.
func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		Categories: []domain.Category{
			{ID: "cat-rent", Name: "Rent", Type: domain.TypeExpense},
			{ID: "cat-groceries", Name: "Groceries", Type: domain.TypeExpense},
			{ID: "cat-dining", Name: "Dining Out", Type: domain.TypeExpense},
			{ID: "cat-salary", Name: "Salary", Type: domain.TypeIncome},
		},
		PaymentMethods: []domain.PaymentMethod{
			{ID: "pm-upi", Name: "UPI (HDFC)", Type: "UPI"},
			{ID: "pm-cc", Name: "Credit Card", Type: "Credit Card"},
		},
	}
}

func TestResolve_CaseInsensitiveMatch(t *testing.T) {
	c := Resolve(domain.Candidate{
		Type:                   domain.TypeExpense,
		CategoryNameGuess:      "groceries",
		PaymentMethodNameGuess: "upi (hdfc)",
	}, testCatalog())

	assert.Equal(t, "cat-groceries", c.CategoryID)
	assert.Equal(t, "pm-upi", c.PaymentMethodID)
}

func TestResolve_NearMissDoesNotMatch(t *testing.T) {
	// Exact match only: "Grocery" is not "Groceries". The blank id is
	// left for the reviewer, not recorded as an error.
	c := Resolve(domain.Candidate{
		Type:              domain.TypeExpense,
		CategoryNameGuess: "Grocery",
	}, testCatalog())

	assert.Empty(t, c.CategoryID)
	assert.True(t, c.Clean())
}

func TestResolve_FiltersCategoriesByType(t *testing.T) {
	// "Salary" exists, but only as an income category.
	c := Resolve(domain.Candidate{
		Type:              domain.TypeExpense,
		CategoryNameGuess: "Salary",
	}, testCatalog())
	assert.Empty(t, c.CategoryID)

	c = Resolve(domain.Candidate{
		Type:              domain.TypeIncome,
		CategoryNameGuess: "Salary",
	}, testCatalog())
	assert.Equal(t, "cat-salary", c.CategoryID)
}

func TestResolve_IncomeCarriesSourceGuess(t *testing.T) {
	c := Resolve(domain.Candidate{
		Type:        domain.TypeIncome,
		SourceGuess: "Acme Corp",
	}, testCatalog())

	assert.Equal(t, "Acme Corp", c.Source)
	assert.Empty(t, c.PaymentMethodID)
}

func TestResolve_PreservesExistingIDs(t *testing.T) {
	c := Resolve(domain.Candidate{
		Type:              domain.TypeExpense,
		CategoryID:        "cat-rent",
		CategoryNameGuess: "Groceries",
	}, testCatalog())

	assert.Equal(t, "cat-rent", c.CategoryID)
}

func TestResolve_InvalidTypeIsSkipped(t *testing.T) {
	c := Resolve(domain.Candidate{
		CategoryNameGuess: "Groceries",
	}, testCatalog())

	assert.Empty(t, c.CategoryID)
}

func TestChangeType_ExpenseToIncome(t *testing.T) {
	c := domain.Candidate{
		Type:              domain.TypeExpense,
		CategoryID:        "cat-groceries",
		CategoryNameGuess: "Salary",
		PaymentMethodID:   "pm-upi",
		ExpenseType:       domain.ExpenseNeed,
	}

	got := ChangeType(c, domain.TypeIncome, testCatalog())

	assert.Equal(t, domain.TypeIncome, got.Type)
	assert.Empty(t, got.PaymentMethodID)
	assert.Empty(t, got.ExpenseType)
	// Re-resolved against the income categories this time.
	assert.Equal(t, "cat-salary", got.CategoryID)
}

func TestChangeType_IncomeToExpense(t *testing.T) {
	c := domain.Candidate{
		Type:       domain.TypeIncome,
		CategoryID: "cat-salary",
		Source:     "Acme Corp",
	}

	got := ChangeType(c, domain.TypeExpense, testCatalog())

	assert.Equal(t, domain.TypeExpense, got.Type)
	assert.Empty(t, got.Source)
	assert.Empty(t, got.CategoryID)
}

func TestChangeType_SameTypeIsNoop(t *testing.T) {
	c := domain.Candidate{
		Type:       domain.TypeExpense,
		CategoryID: "cat-rent",
		Source:     "stale",
	}

	got := ChangeType(c, domain.TypeExpense, testCatalog())
	assert.Equal(t, c, got)
}
