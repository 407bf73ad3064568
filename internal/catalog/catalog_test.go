package catalog

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/dvloznov/pocket-ledger/internal/domain"
)

type fakeRepo struct {
	categories []domain.Category
	payments   []domain.PaymentMethod
	failCats   bool
	failPMs    bool
}

func (r *fakeRepo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	if r.failCats {
		return nil, fmt.Errorf("query failed")
	}
	return r.categories, nil
}

func (r *fakeRepo) ListPaymentMethods(ctx context.Context) ([]domain.PaymentMethod, error) {
	if r.failPMs {
		return nil, fmt.Errorf("query failed")
	}
	return r.payments, nil
}

func fixture() Catalog {
	return Catalog{
		Categories: []domain.Category{
			{ID: "cat-groceries", Name: "Groceries", Type: domain.TypeExpense},
			{ID: "cat-salary", Name: "Salary", Type: domain.TypeIncome},
			{ID: "cat-dining", Name: "Dining Out", Type: domain.TypeExpense},
		},
		PaymentMethods: []domain.PaymentMethod{
			{ID: "pm-upi", Name: "UPI (HDFC)", Type: "UPI"},
			{ID: "pm-cc", Name: "Credit Card", Type: "Credit Card"},
		},
	}
}

func TestLoad(t *testing.T) {
	repo := &fakeRepo{
		categories: fixture().Categories,
		payments:   fixture().PaymentMethods,
	}

	cat, err := Load(context.Background(), repo)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(cat.Categories) != 3 {
		t.Errorf("Expected 3 categories, got %d", len(cat.Categories))
	}
	if len(cat.PaymentMethods) != 2 {
		t.Errorf("Expected 2 payment methods, got %d", len(cat.PaymentMethods))
	}
}

func TestLoad_CategoryError(t *testing.T) {
	_, err := Load(context.Background(), &fakeRepo{failCats: true})
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "list categories") {
		t.Errorf("Expected wrapped context, got: %v", err)
	}
}

func TestLoad_PaymentMethodError(t *testing.T) {
	_, err := Load(context.Background(), &fakeRepo{failPMs: true})
	if err == nil {
		t.Fatal("Expected error")
	}
	if !strings.Contains(err.Error(), "list payment methods") {
		t.Errorf("Expected wrapped context, got: %v", err)
	}
}

func TestCategoryByName(t *testing.T) {
	cat := fixture()

	tests := []struct {
		name   string
		guess  string
		txType domain.TransactionType
		wantID string
		wantOK bool
	}{
		{name: "exact", guess: "Groceries", txType: domain.TypeExpense, wantID: "cat-groceries", wantOK: true},
		{name: "case insensitive", guess: "gRoCeRiEs", txType: domain.TypeExpense, wantID: "cat-groceries", wantOK: true},
		{name: "surrounding whitespace", guess: "  Groceries  ", txType: domain.TypeExpense, wantID: "cat-groceries", wantOK: true},
		{name: "multi word", guess: "dining out", txType: domain.TypeExpense, wantID: "cat-dining", wantOK: true},
		{name: "near miss", guess: "Grocery", txType: domain.TypeExpense, wantOK: false},
		{name: "wrong type", guess: "Salary", txType: domain.TypeExpense, wantOK: false},
		{name: "income match", guess: "salary", txType: domain.TypeIncome, wantID: "cat-salary", wantOK: true},
		{name: "empty guess", guess: "", txType: domain.TypeExpense, wantOK: false},
		{name: "whitespace only", guess: "   ", txType: domain.TypeExpense, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := cat.CategoryByName(tt.guess, tt.txType)
			if ok != tt.wantOK {
				t.Fatalf("CategoryByName(%q, %s) ok = %v, want %v", tt.guess, tt.txType, ok, tt.wantOK)
			}
			if ok && got.ID != tt.wantID {
				t.Errorf("CategoryByName(%q, %s) = %s, want %s", tt.guess, tt.txType, got.ID, tt.wantID)
			}
		})
	}
}

func TestPaymentMethodByName(t *testing.T) {
	cat := fixture()

	got, ok := cat.PaymentMethodByName("upi (hdfc)")
	if !ok || got.ID != "pm-upi" {
		t.Errorf("PaymentMethodByName = %v, %v; want pm-upi, true", got.ID, ok)
	}

	if _, ok := cat.PaymentMethodByName("UPI"); ok {
		t.Error("Expected no match for partial name")
	}
	if _, ok := cat.PaymentMethodByName(""); ok {
		t.Error("Expected no match for empty name")
	}
}

func TestCategoryNames(t *testing.T) {
	cat := fixture()

	expense := cat.CategoryNames(domain.TypeExpense)
	if len(expense) != 2 || expense[0] != "Groceries" || expense[1] != "Dining Out" {
		t.Errorf("Expected expense names in catalog order, got %v", expense)
	}

	income := cat.CategoryNames(domain.TypeIncome)
	if len(income) != 1 || income[0] != "Salary" {
		t.Errorf("Expected [Salary], got %v", income)
	}
}

func TestPaymentMethodNames(t *testing.T) {
	names := fixture().PaymentMethodNames()
	if len(names) != 2 || names[0] != "UPI (HDFC)" {
		t.Errorf("Expected payment method names in catalog order, got %v", names)
	}
}
