package ingest

import (
	"strings"

	"github.com/dvloznov/pocket-ledger/internal/domain"
)

// Violation is one field-level failure of the canonical transaction
// schema.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	return v.Field + ": " + v.Message
}

// Validate applies the canonical transaction invariants to a reviewed
// candidate. It returns either a transaction draft ready for the store
// (id and timestamps are assigned there) or the list of violations.
//
// Validation is pure and ignores the candidate's earlier parse and
// resolution annotations: the user may have fixed those fields during
// review, so this is the single source of truth for submittability.
func Validate(c domain.Candidate) (domain.Transaction, []Violation) {
	var violations []Violation

	if !c.Type.Valid() {
		violations = append(violations, Violation{Field: "type", Message: "must be income or expense"})
	}
	if !c.HasDate() {
		violations = append(violations, Violation{Field: "date", Message: "is required"})
	}
	if !c.Amount.IsPositive() {
		violations = append(violations, Violation{Field: "amount", Message: "must be greater than zero"})
	}
	if strings.TrimSpace(c.Description) == "" {
		violations = append(violations, Violation{Field: "description", Message: "is required"})
	}
	if c.CategoryID == "" {
		violations = append(violations, Violation{Field: "categoryId", Message: "is required"})
	}
	if c.Type == domain.TypeExpense {
		if c.PaymentMethodID == "" {
			violations = append(violations, Violation{Field: "paymentMethodId", Message: "is required for expenses"})
		}
		if !c.ExpenseType.Valid() {
			violations = append(violations, Violation{Field: "expenseType", Message: "must be need, want or investment"})
		}
	}

	if len(violations) > 0 {
		return domain.Transaction{}, violations
	}

	tx := domain.Transaction{
		Type:        c.Type,
		Date:        c.Date,
		Amount:      c.Amount,
		Description: strings.TrimSpace(c.Description),
		CategoryID:  c.CategoryID,
	}
	switch c.Type {
	case domain.TypeExpense:
		tx.PaymentMethodID = c.PaymentMethodID
		tx.ExpenseType = c.ExpenseType
	case domain.TypeIncome:
		tx.Source = strings.TrimSpace(c.Source)
	}

	return tx, nil
}
