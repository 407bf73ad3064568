package ingest

import (
	"context"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/pocket-ledger/internal/catalog"
	"github.com/dvloznov/pocket-ledger/internal/domain"
	"github.com/dvloznov/pocket-ledger/internal/store"
	"github.com/rs/zerolog"
)

// Pipeline wires the parsers, resolver, validator and committer over
// one catalog snapshot. It holds no review state of its own; the
// review set travels through it as an explicit value.
type Pipeline struct {
	cat   catalog.Catalog
	model GenerativeModel
	store store.TransactionStore
	log   zerolog.Logger
}

// New creates a pipeline. model may be nil when only bulk parsing is
// needed (the AI parse calls then fail with a ModelError).
func New(cat catalog.Catalog, model GenerativeModel, st store.TransactionStore, log zerolog.Logger) *Pipeline {
	return &Pipeline{cat: cat, model: model, store: st, log: log}
}

// Catalog returns the catalog snapshot this pipeline resolves against.
func (p *Pipeline) Catalog() catalog.Catalog {
	return p.cat
}

// ParseBulk parses a tab-separated paste and resolves name guesses,
// returning the full candidate set, broken rows included.
func (p *Pipeline) ParseBulk(raw string) (ReviewSet, error) {
	candidates, err := ParseBulkRows(raw)
	if err != nil {
		return ReviewSet{}, err
	}

	set := NewReviewSet(ResolveAll(candidates, p.cat))
	p.log.Info().Int("candidates", set.Len()).Msg("bulk rows parsed")
	return set, nil
}

// ParseFreeText interprets a free-form text block via the generative
// model and resolves the returned items. The summary string is the
// model's own account of what it saw; with zero candidates it must be
// rendered to the user so an empty result is distinguishable from
// success.
func (p *Pipeline) ParseFreeText(ctx context.Context, text string) (ReviewSet, string, error) {
	if p.model == nil {
		return ReviewSet{}, "", &ModelError{Op: "parse text", Err: errNoModel}
	}

	result, err := ParseText(ctx, p.model, p.cat, text, civil.DateOf(time.Now()))
	if err != nil {
		return ReviewSet{}, "", err
	}

	set := NewReviewSet(ResolveAll(result.Candidates, p.cat))
	p.log.Info().Int("candidates", set.Len()).Msg("free text parsed")
	return set, result.Summary, nil
}

// ParseReceiptImage interprets a photographed receipt via the vision
// model. An unreadable image yields an empty set plus a message.
func (p *Pipeline) ParseReceiptImage(ctx context.Context, mimeType string, image []byte) (ReviewSet, string, error) {
	if p.model == nil {
		return ReviewSet{}, "", &ModelError{Op: "parse receipt", Err: errNoModel}
	}

	result, err := ParseReceipt(ctx, p.model, p.cat, mimeType, image)
	if err != nil {
		return ReviewSet{}, "", err
	}
	if result.Item == nil {
		return ReviewSet{}, result.Message, nil
	}

	set := NewReviewSet(ResolveAll([]domain.Candidate{*result.Item}, p.cat))
	p.log.Info().Msg("receipt parsed")
	return set, result.Message, nil
}

// ItemFailure attributes a submit failure to the candidate it belongs
// to, by its position in the original raw input.
type ItemFailure struct {
	Position    int      `json:"position"`
	Description string   `json:"description,omitempty"`
	Reasons     []string `json:"reasons"`
}

// Outcome classifies a settled submission attempt.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

// SubmitResult reports exactly what happened to each candidate in a
// submission attempt: "X added, Y failed" plus the per-item reasons.
type SubmitResult struct {
	SuccessCount int                  `json:"successCount"`
	ErrorCount   int                  `json:"errorCount"`
	Failures     []ItemFailure        `json:"failures,omitempty"`
	Outcome      Outcome              `json:"outcome"`
	Created      []domain.Transaction `json:"-"`
}

// PreparedSubmission carries a validated review set between the
// validation and commit stages of a submission attempt, so callers that
// track per-stage progress can run them separately.
type PreparedSubmission struct {
	set          ReviewSet
	drafts       []domain.Transaction
	draftIndexes []int
	result       SubmitResult
	remaining    map[int]bool
}

// ValidateSet runs the validator over every candidate in the set and
// collects the drafts ready for commit plus the per-item failures of
// the ones that are not.
func (p *Pipeline) ValidateSet(set ReviewSet) PreparedSubmission {
	prep := PreparedSubmission{set: set, remaining: make(map[int]bool)}

	for i, c := range set.Candidates {
		draft, violations := Validate(c)
		if len(violations) > 0 {
			reasons := make([]string, len(violations))
			for j, v := range violations {
				reasons[j] = v.String()
			}
			prep.result.ErrorCount++
			prep.result.Failures = append(prep.result.Failures, ItemFailure{
				Position:    c.Position,
				Description: c.Description,
				Reasons:     reasons,
			})
			prep.remaining[i] = true
			continue
		}
		prep.drafts = append(prep.drafts, draft)
		prep.draftIndexes = append(prep.draftIndexes, i)
	}

	return prep
}

// CommitPrepared commits the validated drafts concurrently and settles
// the attempt. Candidates that failed validation or persistence stay in
// the returned set so the user can correct and retry them; committed
// ones are dropped.
func (p *Pipeline) CommitPrepared(ctx context.Context, prep PreparedSubmission) (SubmitResult, ReviewSet) {
	result := prep.result

	commit := CommitAll(ctx, p.store, prep.drafts)
	result.SuccessCount = commit.SuccessCount
	result.ErrorCount += commit.ErrorCount

	failed := make(map[int]string, len(commit.Errors))
	for _, ce := range commit.Errors {
		failed[ce.Index] = ce.Message
	}
	for di, tx := range commit.Created {
		setIndex := prep.draftIndexes[di]
		if msg, ok := failed[di]; ok {
			c := prep.set.Candidates[setIndex]
			result.Failures = append(result.Failures, ItemFailure{
				Position:    c.Position,
				Description: c.Description,
				Reasons:     []string{"could not save transaction: " + msg},
			})
			prep.remaining[setIndex] = true
			continue
		}
		result.Created = append(result.Created, tx)
	}

	switch {
	case result.ErrorCount == 0:
		result.Outcome = OutcomeSuccess
	case result.SuccessCount == 0:
		result.Outcome = OutcomeFailure
	default:
		result.Outcome = OutcomePartial
	}

	p.log.Info().
		Int("added", result.SuccessCount).
		Int("failed", result.ErrorCount).
		Str("outcome", string(result.Outcome)).
		Msg("submission settled")

	return result, prep.set.keep(prep.remaining)
}

// Submit validates every candidate in the set, commits the valid ones
// concurrently, and reports the aggregate. An empty set is rejected
// with ErrEmptyInput: a no-op submit must not settle as a success.
func (p *Pipeline) Submit(ctx context.Context, set ReviewSet) (SubmitResult, ReviewSet, error) {
	if set.Len() == 0 {
		return SubmitResult{}, set, ErrEmptyInput
	}

	result, remaining := p.CommitPrepared(ctx, p.ValidateSet(set))
	return result, remaining, nil
}
