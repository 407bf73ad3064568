package ingest

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// bulkDatePattern enforces the strict DD/MM/YYYY shape of the bulk
// paste contract. time.Parse alone would accept single-digit days and
// months, which the spreadsheet export never produces.
var bulkDatePattern = regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`)

// parseBulkDate parses the strict DD/MM/YYYY date of a bulk row.
func parseBulkDate(s string) (civil.Date, error) {
	trimmed := strings.TrimSpace(s)
	if !bulkDatePattern.MatchString(trimmed) {
		return civil.Date{}, fmt.Errorf("invalid date %q: expected DD/MM/YYYY", s)
	}
	t, err := time.Parse("02/01/2006", trimmed)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q: expected DD/MM/YYYY", s)
	}
	return civil.DateOf(t), nil
}

// parseISODate parses the YYYY-MM-DD calendar date the model is
// instructed to emit.
func parseISODate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return d, nil
}

// parseAmount normalizes a money string: currency glyphs and spaces are
// stripped, comma thousands separators removed, and the remainder must
// parse as a decimal greater than zero.
func parseAmount(s string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if unicode.Is(unicode.Sc, r) || unicode.IsSpace(r) || r == ',' {
			continue
		}
		b.WriteRune(r)
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("amount %q must be greater than zero", s)
	}
	return d, nil
}
