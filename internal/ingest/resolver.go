package ingest

import (
	"github.com/dvloznov/pocket-ledger/internal/catalog"
	"github.com/dvloznov/pocket-ledger/internal/domain"
)

// Resolve maps the candidate's name guesses to catalog ids by exact,
// case-insensitive lookup against the lists relevant to its type. A
// guess with no match leaves the id unset; that is not an error here,
// the blank selector is surfaced to the reviewer and the validator
// rejects it only if still blank at submit time.
//
// Resolve takes and returns a value: candidates are never mutated in
// place.
func Resolve(c domain.Candidate, cat catalog.Catalog) domain.Candidate {
	if !c.Type.Valid() {
		return c
	}

	if c.CategoryID == "" {
		if match, ok := cat.CategoryByName(c.CategoryNameGuess, c.Type); ok {
			c.CategoryID = match.ID
		}
	}

	switch c.Type {
	case domain.TypeExpense:
		if c.PaymentMethodID == "" {
			if match, ok := cat.PaymentMethodByName(c.PaymentMethodNameGuess); ok {
				c.PaymentMethodID = match.ID
			}
		}
	case domain.TypeIncome:
		// Source is free text: the guess carries straight over.
		if c.Source == "" {
			c.Source = c.SourceGuess
		}
	}

	return c
}

// ResolveAll resolves every candidate in the slice, returning a new slice.
func ResolveAll(cs []domain.Candidate, cat catalog.Catalog) []domain.Candidate {
	out := make([]domain.Candidate, len(cs))
	for i, c := range cs {
		out[i] = Resolve(c, cat)
	}
	return out
}

// ChangeType switches a candidate's transaction type during review. It
// clears the fields that do not apply to the new type and re-runs
// resolution against the newly relevant catalog lists.
func ChangeType(c domain.Candidate, newType domain.TransactionType, cat catalog.Catalog) domain.Candidate {
	if c.Type == newType {
		return c
	}

	c.Type = newType
	c.CategoryID = ""

	switch newType {
	case domain.TypeIncome:
		c.PaymentMethodID = ""
		c.ExpenseType = ""
	case domain.TypeExpense:
		c.Source = ""
	}

	return Resolve(c, cat)
}
