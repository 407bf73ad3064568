package domain

import (
	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// CandidateOrigin identifies which parser produced a candidate.
type CandidateOrigin string

const (
	OriginManual    CandidateOrigin = "manual"
	OriginBulkRow   CandidateOrigin = "bulk_row"
	OriginAIText    CandidateOrigin = "ai_text"
	OriginAIReceipt CandidateOrigin = "ai_receipt"
)

// Candidate is a transient, possibly incomplete transaction produced by
// a parser and pending human review. It is never persisted; the
// validator turns an accepted candidate into a Transaction draft.
//
// A candidate carries both resolved id fields and the free-text name
// guesses they were resolved from, so the review UI can show what the
// parser saw when a guess had no catalog match.
type Candidate struct {
	Origin   CandidateOrigin `json:"origin"`
	RawInput string          `json:"rawInput,omitempty"`
	Position int             `json:"position"` // 1-based row/item number in the raw input

	Type        TransactionType `json:"type"`
	Date        civil.Date      `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`

	CategoryID      string      `json:"categoryId,omitempty"`
	PaymentMethodID string      `json:"paymentMethodId,omitempty"`
	ExpenseType     ExpenseType `json:"expenseType,omitempty"`
	Source          string      `json:"source,omitempty"`

	CategoryNameGuess      string `json:"categoryNameGuess,omitempty"`
	PaymentMethodNameGuess string `json:"paymentMethodNameGuess,omitempty"`
	SourceGuess            string `json:"sourceGuess,omitempty"`

	// Confidence is informational only and never gates validation or
	// submission. Nil means the parser did not report one.
	Confidence *float64 `json:"confidenceScore,omitempty"`

	// Errors holds human-readable parse and resolution problems in the
	// order they were found. An empty list means the parser saw nothing
	// wrong; the validator still has the final say at submit time.
	Errors []string `json:"errors,omitempty"`
}

// HasDate reports whether the candidate's date was set by a parser or
// the user. The zero civil.Date means "unset".
func (c Candidate) HasDate() bool {
	return c.Date != civil.Date{}
}

// HasAmount reports whether the candidate carries a parsed amount.
func (c Candidate) HasAmount() bool {
	return !c.Amount.IsZero()
}

// Clean reports whether the candidate has no recorded parse or
// resolution errors.
func (c Candidate) Clean() bool {
	return len(c.Errors) == 0
}
