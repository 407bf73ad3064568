package ingest

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dvloznov/pocket-ledger/internal/catalog"
	"github.com/dvloznov/pocket-ledger/internal/domain"
)

// ReceiptResult is the outcome of one receipt parse attempt. A nil
// Item with a non-empty Message means the model answered but the image
// was not a readable receipt.
type ReceiptResult struct {
	Item    *domain.Candidate
	Message string
}

// ParseReceipt delegates interpretation of a photographed receipt to
// the vision model. Receipts are assumed to describe a single expense.
// If the model reports neither a description nor an amount, the image
// is treated as unreadable and no reviewable candidate is produced.
func ParseReceipt(ctx context.Context, model GenerativeModel, cat catalog.Catalog, mimeType string, image []byte) (ReceiptResult, error) {
	if len(image) == 0 {
		return ReceiptResult{}, ErrEmptyInput
	}

	raw, err := model.GenerateWithImage(ctx, buildReceiptPrompt(cat), mimeType, image)
	if err != nil {
		return ReceiptResult{}, &ModelError{Op: "parse receipt", Err: err}
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &parsed); err != nil {
		return ReceiptResult{}, &ModelError{Op: "parse receipt", Err: fmt.Errorf("unmarshal model JSON: %w", err)}
	}

	itemAny, ok := parsed["item"]
	if !ok || itemAny == nil {
		return ReceiptResult{Message: "the image could not be read as a receipt"}, nil
	}
	obj, ok := itemAny.(map[string]interface{})
	if !ok {
		return ReceiptResult{}, &ModelError{Op: "parse receipt", Err: fmt.Errorf("'item' is %T, want object", itemAny)}
	}

	c := candidateFromModelItem(obj, 1, domain.OriginAIReceipt, domain.TypeExpense)
	if c.Description == "" && !c.HasAmount() {
		return ReceiptResult{Message: "the image could not be read as a receipt"}, nil
	}

	return ReceiptResult{Item: &c}, nil
}
