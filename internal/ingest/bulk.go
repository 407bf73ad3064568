package ingest

import (
	"fmt"
	"strings"

	"github.com/dvloznov/pocket-ledger/internal/domain"
)

// Bulk paste rows are tab-delimited with a fixed column order matching
// the user's spreadsheet export. Column 3 is a row total the
// spreadsheet repeats; it is carried for layout compatibility only and
// never parsed.
const (
	colDescription = iota
	colCategory
	colAmount
	colIgnoredTotal
	colDate
	colExpenseType
	colPaymentMethod

	bulkColumnCount
)

// ParseBulkRows turns a multi-line tab-separated paste into one
// candidate per non-blank line. All bulk rows are expenses. Rows are
// parsed independently: a broken row is annotated with errors and never
// affects its siblings. Returns ErrEmptyInput if the paste has no rows
// at all.
func ParseBulkRows(raw string) ([]domain.Candidate, error) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var candidates []domain.Candidate
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		candidates = append(candidates, parseBulkRow(line, i+1))
	}

	if len(candidates) == 0 {
		return nil, ErrEmptyInput
	}
	return candidates, nil
}

func parseBulkRow(line string, position int) domain.Candidate {
	c := domain.Candidate{
		Origin:   domain.OriginBulkRow,
		RawInput: line,
		Position: position,
		Type:     domain.TypeExpense,
	}

	fields := strings.Split(line, "\t")
	if len(fields) < bulkColumnCount {
		c.Errors = append(c.Errors, fmt.Sprintf("row has fewer than the required %d columns (got %d)", bulkColumnCount, len(fields)))
		return c
	}

	c.Description = strings.TrimSpace(fields[colDescription])
	if c.Description == "" {
		c.Errors = append(c.Errors, "description is empty")
	}

	c.CategoryNameGuess = strings.TrimSpace(fields[colCategory])
	if c.CategoryNameGuess == "" {
		c.Errors = append(c.Errors, "category name is empty")
	}

	amount, err := parseAmount(fields[colAmount])
	if err != nil {
		c.Errors = append(c.Errors, err.Error())
	} else {
		c.Amount = amount
	}

	date, err := parseBulkDate(fields[colDate])
	if err != nil {
		c.Errors = append(c.Errors, err.Error())
	} else {
		c.Date = date
	}

	expenseType := domain.ExpenseType(strings.ToLower(strings.TrimSpace(fields[colExpenseType])))
	if !expenseType.Valid() {
		c.Errors = append(c.Errors, fmt.Sprintf("unknown expense type %q", strings.TrimSpace(fields[colExpenseType])))
	} else {
		c.ExpenseType = expenseType
	}

	c.PaymentMethodNameGuess = strings.TrimSpace(fields[colPaymentMethod])
	if c.PaymentMethodNameGuess == "" {
		c.Errors = append(c.Errors, "payment method name is empty")
	}

	return c
}
