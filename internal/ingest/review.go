package ingest

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/pocket-ledger/internal/catalog"
	"github.com/dvloznov/pocket-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// ReviewSet is the editable collection of candidates between parsing
// and submission. It is an explicit value: every edit produces a new
// set with a fresh slice, never an in-place mutation shared by
// reference.
type ReviewSet struct {
	Candidates []domain.Candidate `json:"candidates"`
}

// NewReviewSet wraps parsed candidates into a review set.
func NewReviewSet(cs []domain.Candidate) ReviewSet {
	return ReviewSet{Candidates: cs}
}

// Len returns the number of candidates under review.
func (s ReviewSet) Len() int {
	return len(s.Candidates)
}

// Get returns the candidate at index.
func (s ReviewSet) Get(index int) (domain.Candidate, error) {
	if index < 0 || index >= len(s.Candidates) {
		return domain.Candidate{}, fmt.Errorf("candidate index %d out of range (have %d)", index, len(s.Candidates))
	}
	return s.Candidates[index], nil
}

// CandidateEdit carries the fields a reviewer changed. Nil means
// "leave as is"; any field may be overridden before commit.
type CandidateEdit struct {
	Type                   *domain.TransactionType `json:"type,omitempty"`
	Date                   *civil.Date             `json:"date,omitempty"`
	Amount                 *decimal.Decimal        `json:"amount,omitempty"`
	Description            *string                 `json:"description,omitempty"`
	CategoryID             *string                 `json:"categoryId,omitempty"`
	PaymentMethodID        *string                 `json:"paymentMethodId,omitempty"`
	ExpenseType            *domain.ExpenseType     `json:"expenseType,omitempty"`
	Source                 *string                 `json:"source,omitempty"`
	CategoryNameGuess      *string                 `json:"categoryNameGuess,omitempty"`
	PaymentMethodNameGuess *string                 `json:"paymentMethodNameGuess,omitempty"`
}

// Apply returns a new review set with the edit applied to the
// candidate at index. A type change clears fields not applicable to the
// new type and re-resolves against the newly relevant catalog lists; a
// changed name guess is re-resolved the same way. Explicit id edits win
// over resolution.
func (s ReviewSet) Apply(index int, edit CandidateEdit, cat catalog.Catalog) (ReviewSet, error) {
	c, err := s.Get(index)
	if err != nil {
		return ReviewSet{}, err
	}

	if edit.Type != nil {
		c = ChangeType(c, *edit.Type, cat)
	}
	if edit.CategoryNameGuess != nil && *edit.CategoryNameGuess != c.CategoryNameGuess {
		c.CategoryNameGuess = *edit.CategoryNameGuess
		c.CategoryID = ""
		c = Resolve(c, cat)
	}
	if edit.PaymentMethodNameGuess != nil && *edit.PaymentMethodNameGuess != c.PaymentMethodNameGuess {
		c.PaymentMethodNameGuess = *edit.PaymentMethodNameGuess
		c.PaymentMethodID = ""
		c = Resolve(c, cat)
	}

	if edit.Date != nil {
		c.Date = *edit.Date
	}
	if edit.Amount != nil {
		c.Amount = *edit.Amount
	}
	if edit.Description != nil {
		c.Description = *edit.Description
	}
	if edit.CategoryID != nil {
		c.CategoryID = *edit.CategoryID
	}
	if edit.PaymentMethodID != nil {
		c.PaymentMethodID = *edit.PaymentMethodID
	}
	if edit.ExpenseType != nil {
		c.ExpenseType = *edit.ExpenseType
	}
	if edit.Source != nil {
		c.Source = *edit.Source
	}

	out := make([]domain.Candidate, len(s.Candidates))
	copy(out, s.Candidates)
	out[index] = c
	return ReviewSet{Candidates: out}, nil
}

// Add appends a manually entered candidate, resolving any name guesses
// it carries. Manual entries join the same review/validate/commit path
// as parsed ones; nothing is pre-checked here.
func (s ReviewSet) Add(c domain.Candidate, cat catalog.Catalog) ReviewSet {
	c.Origin = domain.OriginManual
	c.Position = len(s.Candidates) + 1
	c.Errors = nil
	c = Resolve(c, cat)

	out := make([]domain.Candidate, len(s.Candidates), len(s.Candidates)+1)
	copy(out, s.Candidates)
	return ReviewSet{Candidates: append(out, c)}
}

// keep returns a new set holding only the candidates whose index is in
// indexes, preserving order. Used after a submit to retain the rows
// that did not make it so the user can correct and retry them.
func (s ReviewSet) keep(indexes map[int]bool) ReviewSet {
	var out []domain.Candidate
	for i, c := range s.Candidates {
		if indexes[i] {
			out = append(out, c)
		}
	}
	return ReviewSet{Candidates: out}
}
