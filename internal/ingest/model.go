package ingest

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/pocket-ledger/internal/catalog"
	"github.com/dvloznov/pocket-ledger/internal/domain"
	"google.golang.org/genai"
)

// DefaultModelName is the default Gemini model used for parsing.
const DefaultModelName = "gemini-2.5-flash"

// GenerativeModel is the external collaborator that interprets free
// text and receipt images. Its prompting and model choice live behind
// this interface so the pipeline and its tests never depend on the
// network.
type GenerativeModel interface {
	// GenerateText sends a text-only prompt and returns the raw model response.
	GenerateText(ctx context.Context, prompt string) (string, error)

	// GenerateWithImage sends a prompt plus an inline image and returns
	// the raw model response.
	GenerateWithImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error)
}

// GeminiModel is the concrete GenerativeModel backed by the Gemini API.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel creates a Gemini-backed model client. An empty model
// name selects DefaultModelName.
func NewGeminiModel(ctx context.Context, model string) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiModel: create genai client: %w", err)
	}
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiModel{client: client, model: model}, nil
}

// GenerateText implements GenerativeModel.
func (m *GeminiModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GenerateText: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("GenerateText: empty response from model")
	}
	return text, nil
}

// GenerateWithImage implements GenerativeModel.
func (m *GeminiModel) GenerateWithImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: prompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     image,
					},
				},
			},
		},
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GenerateWithImage: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("GenerateWithImage: empty response from model")
	}
	return text, nil
}

// buildCatalogPrompt lists the catalog names the model is allowed to
// guess, split by transaction type.
func buildCatalogPrompt(cat catalog.Catalog) string {
	var b strings.Builder

	b.WriteString("Known expense categories:\n")
	for _, name := range cat.CategoryNames(domain.TypeExpense) {
		b.WriteString("  - " + name + "\n")
	}
	b.WriteString("\nKnown income categories:\n")
	for _, name := range cat.CategoryNames(domain.TypeIncome) {
		b.WriteString("  - " + name + "\n")
	}
	b.WriteString("\nKnown payment methods:\n")
	for _, name := range cat.PaymentMethodNames() {
		b.WriteString("  - " + name + "\n")
	}

	b.WriteString("\nNAME RULES:\n")
	b.WriteString("1. category_name and payment_method_name should be EXACTLY one of the names shown above.\n")
	b.WriteString("2. If nothing fits, use your best-guess free text; it will be left for human review.\n")

	return b.String()
}

// buildTextPrompt constructs the full prompt for the free-text parser.
// The model resolves relative dates ("yesterday") against today itself,
// so today's date is part of the prompt.
func buildTextPrompt(cat catalog.Catalog, today civil.Date) string {
	base := "You are a personal-finance transaction parser.\n\n" +
		"Task:\n" +
		"- Extract ALL transactions described in the text below.\n" +
		"- Today's date is " + today.String() + ". Resolve relative expressions like \"yesterday\" against it.\n" +
		"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
		"- Output a single JSON object:\n\n" +
		"{\n" +
		"  \"items\": [ ... one object per transaction ... ],\n" +
		"  \"summary\": string\n" +
		"}\n\n" +
		"Each item must have these fields:\n" +
		"- \"date\": string, ISO format \"YYYY-MM-DD\"\n" +
		"- \"description\": string\n" +
		"- \"amount\": number, greater than 0\n" +
		"- \"type\": \"income\" or \"expense\"\n" +
		"- \"category_name\": string\n" +
		"- \"payment_method_name\": string or null (expenses only)\n" +
		"- \"expense_type\": \"need\", \"want\" or \"investment\" (expenses only)\n" +
		"- \"source\": string or null (income only, e.g. the employer)\n" +
		"- \"confidence\": number between 0 and 1\n" +
		"- \"error\": string or null if this portion could not be parsed reliably\n\n"

	rules := "\nRules:\n" +
		"- If the text contains no financial content, return an empty \"items\" array and explain why in \"summary\".\n" +
		"- Return ONLY valid raw JSON.\n" +
		"- Do NOT wrap the response in code fences.\n" +
		"- Do NOT use ```json or any Markdown.\n" +
		"- Output must begin with \"{\" and end with \"}\".\n"

	return base + buildCatalogPrompt(cat) + rules
}

// buildReceiptPrompt constructs the full prompt for the receipt parser.
// Receipts describe at most one expense.
func buildReceiptPrompt(cat catalog.Catalog) string {
	base := "You are a receipt reader for a personal-finance ledger.\n\n" +
		"Task:\n" +
		"- Read the attached receipt image and extract ONE expense.\n" +
		"- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n" +
		"- Output a single JSON object:\n\n" +
		"{\n" +
		"  \"item\": { ... } or null if the image is not a readable receipt\n" +
		"}\n\n" +
		"The item must have these fields:\n" +
		"- \"date\": string, ISO format \"YYYY-MM-DD\", or null if not visible\n" +
		"- \"description\": string (the merchant or purchase)\n" +
		"- \"amount\": number, the receipt total, greater than 0\n" +
		"- \"category_name\": string\n" +
		"- \"payment_method_name\": string or null\n" +
		"- \"expense_type\": \"need\", \"want\" or \"investment\"\n" +
		"- \"confidence\": number between 0 and 1\n" +
		"- \"error\": string or null if part of the receipt could not be read\n\n"

	rules := "\nRules:\n" +
		"- Return ONLY valid raw JSON.\n" +
		"- Do NOT wrap the response in code fences.\n" +
		"- Output must begin with \"{\" and end with \"}\".\n"

	return base + buildCatalogPrompt(cat) + rules
}

// cleanModelJSON strips Markdown fences and surrounding junk when the
// model ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	// Handle ```json ... ``` or ``` ... ``` wrappers.
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// Extra safety: if there's still junk around the JSON object,
	// keep only from the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
