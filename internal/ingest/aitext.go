package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/pocket-ledger/internal/catalog"
	"github.com/dvloznov/pocket-ledger/internal/domain"
	"github.com/shopspring/decimal"
)

// TextResult is the outcome of one free-text parse attempt. Zero
// candidates with a non-empty Summary means the model answered but
// recognized nothing financial, which is distinct from a model failure.
type TextResult struct {
	Candidates []domain.Candidate
	Summary    string
}

// ParseText delegates interpretation of a free-form text block to the
// generative model and maps each returned item to a candidate. Relative
// dates are resolved by the model against today.
func ParseText(ctx context.Context, model GenerativeModel, cat catalog.Catalog, text string, today civil.Date) (TextResult, error) {
	if strings.TrimSpace(text) == "" {
		return TextResult{}, ErrEmptyInput
	}

	prompt := buildTextPrompt(cat, today) + "\nText:\n" + text

	raw, err := model.GenerateText(ctx, prompt)
	if err != nil {
		return TextResult{}, &ModelError{Op: "parse text", Err: err}
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		return TextResult{}, &ModelError{Op: "parse text", Err: fmt.Errorf("unmarshal model JSON: %w", err)}
	}

	// The summary is decorative, so a malformed one is treated as
	// absent rather than failing the parse; with zero items the default
	// message below still takes over.
	summary, err := getStringField(parsed, "summary")
	if err != nil {
		summary = ""
	}

	itemsAny, ok := parsed["items"]
	if !ok || itemsAny == nil {
		return TextResult{}, &ModelError{Op: "parse text", Err: fmt.Errorf("model output has no 'items' array")}
	}
	items, ok := itemsAny.([]interface{})
	if !ok {
		return TextResult{}, &ModelError{Op: "parse text", Err: fmt.Errorf("'items' is %T, want array", itemsAny)}
	}

	if len(items) == 0 {
		if summary == "" {
			summary = "no transactions were recognized in the text"
		}
		return TextResult{Summary: summary}, nil
	}

	result := TextResult{Summary: summary}
	for i, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			result.Candidates = append(result.Candidates, domain.Candidate{
				Origin:   domain.OriginAIText,
				Position: i + 1,
				Errors:   []string{fmt.Sprintf("model item %d is %T, want object", i+1, item)},
			})
			continue
		}
		result.Candidates = append(result.Candidates, candidateFromModelItem(obj, i+1, domain.OriginAIText, ""))
	}

	return result, nil
}

// candidateFromModelItem maps one model-returned object to a candidate.
// forcedType pins the transaction type (receipts are always expenses);
// when empty, the type comes from the item itself.
//
// An unparsable model date is recorded as an error and left unset, it
// is never silently defaulted to today.
func candidateFromModelItem(obj map[string]interface{}, position int, origin domain.CandidateOrigin, forcedType domain.TransactionType) domain.Candidate {
	c := domain.Candidate{
		Origin:   origin,
		Position: position,
		Type:     forcedType,
	}

	if forcedType == "" {
		typeStr, err := getStringField(obj, "type")
		if err != nil {
			c.Errors = append(c.Errors, err.Error())
		} else {
			txType := domain.TransactionType(strings.ToLower(typeStr))
			if !txType.Valid() {
				c.Errors = append(c.Errors, fmt.Sprintf("unknown transaction type %q", typeStr))
			} else {
				c.Type = txType
			}
		}
	}

	desc, err := getStringField(obj, "description")
	if err != nil {
		c.Errors = append(c.Errors, err.Error())
	} else {
		c.Description = desc
		if desc == "" {
			c.Errors = append(c.Errors, "description is empty")
		}
	}

	dateStr, err := getStringField(obj, "date")
	switch {
	case err != nil:
		c.Errors = append(c.Errors, err.Error())
	case dateStr == "":
		c.Errors = append(c.Errors, "date is missing")
	default:
		date, err := parseISODate(dateStr)
		if err != nil {
			c.Errors = append(c.Errors, err.Error())
		} else {
			c.Date = date
		}
	}

	amount, err := getFloat64Field(obj, "amount")
	switch {
	case err != nil:
		c.Errors = append(c.Errors, err.Error())
	case amount == nil:
		c.Errors = append(c.Errors, "amount is missing")
	case *amount <= 0:
		c.Errors = append(c.Errors, fmt.Sprintf("amount %v must be greater than zero", *amount))
	default:
		c.Amount = decimal.NewFromFloat(*amount)
	}

	if guess, err := getStringField(obj, "category_name"); err != nil {
		c.Errors = append(c.Errors, err.Error())
	} else {
		c.CategoryNameGuess = guess
	}

	if c.Type != domain.TypeIncome {
		if guess, err := getStringField(obj, "payment_method_name"); err != nil {
			c.Errors = append(c.Errors, err.Error())
		} else {
			c.PaymentMethodNameGuess = guess
		}

		etStr, err := getStringField(obj, "expense_type")
		switch {
		case err != nil:
			c.Errors = append(c.Errors, err.Error())
		case etStr != "":
			et := domain.ExpenseType(strings.ToLower(etStr))
			if !et.Valid() {
				c.Errors = append(c.Errors, fmt.Sprintf("unknown expense type %q", etStr))
			} else {
				c.ExpenseType = et
			}
		}
	}

	if c.Type == domain.TypeIncome {
		if guess, err := getStringField(obj, "source"); err != nil {
			c.Errors = append(c.Errors, err.Error())
		} else {
			c.SourceGuess = guess
		}
	}

	if conf, err := getFloat64Field(obj, "confidence"); err == nil && conf != nil && *conf >= 0 && *conf <= 1 {
		c.Confidence = conf
	}

	if modelErr, err := getStringField(obj, "error"); err == nil && modelErr != "" {
		c.Errors = append(c.Errors, modelErr)
	}

	return c
}
