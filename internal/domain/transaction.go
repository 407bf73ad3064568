package domain

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// TransactionType distinguishes money coming in from money going out.
type TransactionType string

const (
	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

// ExpenseType classifies an expense for budgeting purposes.
type ExpenseType string

const (
	ExpenseNeed       ExpenseType = "need"
	ExpenseWant       ExpenseType = "want"
	ExpenseInvestment ExpenseType = "investment"
)

// Valid reports whether e is one of the known expense types.
func (e ExpenseType) Valid() bool {
	return e == ExpenseNeed || e == ExpenseWant || e == ExpenseInvestment
}

// Category is a reference-data entry transactions point at.
// Categories are maintained by the settings workflow; the ingestion
// pipeline only ever reads them.
type Category struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Type TransactionType `json:"type"`
}

// PaymentMethod is a reference-data entry for how an expense was paid.
// Type is a free-text label such as "Credit Card" or "UPI".
type PaymentMethod struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Transaction is the canonical shape persisted by the store. The
// validator is the only gate that produces one, so a persisted
// transaction never violates the required-iff rules below:
//
//   - CategoryID is required for both types.
//   - PaymentMethodID and ExpenseType are required iff Type is expense.
//   - Source is optional and only meaningful for income.
type Transaction struct {
	ID          string          `json:"id"`
	Type        TransactionType `json:"type"`
	Date        civil.Date      `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`

	CategoryID      string      `json:"categoryId"`
	PaymentMethodID string      `json:"paymentMethodId,omitempty"`
	ExpenseType     ExpenseType `json:"expenseType,omitempty"`
	Source          string      `json:"source,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
