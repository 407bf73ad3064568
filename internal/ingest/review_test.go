package ingest

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dvloznov/pocket-ledger/internal/domain"
)

func strPtr(s string) *string { return &s }

func typePtr(t domain.TransactionType) *domain.TransactionType { return &t }

func TestReviewSet_Get(t *testing.T) {
	set := NewReviewSet([]domain.Candidate{{Description: "Coffee"}})

	c, err := set.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", c.Description)

	_, err = set.Get(1)
	assert.Error(t, err)
	_, err = set.Get(-1)
	assert.Error(t, err)
}

func TestApply_FieldEdits(t *testing.T) {
	set := NewReviewSet([]domain.Candidate{validExpense()})

	amount := decimal.NewFromInt(500)
	got, err := set.Apply(0, CandidateEdit{
		Description: strPtr("Espresso"),
		Amount:      &amount,
	}, testCatalog())
	require.NoError(t, err)

	c, _ := got.Get(0)
	assert.Equal(t, "Espresso", c.Description)
	assert.Equal(t, "500", c.Amount.String())
	// Untouched fields survive.
	assert.Equal(t, "cat-dining", c.CategoryID)
}

func TestApply_DoesNotMutateOriginal(t *testing.T) {
	set := NewReviewSet([]domain.Candidate{validExpense()})

	_, err := set.Apply(0, CandidateEdit{Description: strPtr("changed")}, testCatalog())
	require.NoError(t, err)

	c, _ := set.Get(0)
	assert.Equal(t, "Coffee", c.Description)
}

func TestApply_GuessChangeReResolves(t *testing.T) {
	c := validExpense()
	c.CategoryID = "cat-dining"
	c.CategoryNameGuess = "Dining Out"
	set := NewReviewSet([]domain.Candidate{c})

	got, err := set.Apply(0, CandidateEdit{CategoryNameGuess: strPtr("Groceries")}, testCatalog())
	require.NoError(t, err)

	edited, _ := got.Get(0)
	assert.Equal(t, "cat-groceries", edited.CategoryID)
}

func TestApply_GuessChangeWithNoMatchClearsID(t *testing.T) {
	c := validExpense()
	c.CategoryNameGuess = "Dining Out"
	set := NewReviewSet([]domain.Candidate{c})

	got, err := set.Apply(0, CandidateEdit{CategoryNameGuess: strPtr("Souvenirs")}, testCatalog())
	require.NoError(t, err)

	edited, _ := got.Get(0)
	assert.Empty(t, edited.CategoryID)
	assert.Equal(t, "Souvenirs", edited.CategoryNameGuess)
}

func TestApply_ExplicitIDWinsOverResolution(t *testing.T) {
	set := NewReviewSet([]domain.Candidate{validExpense()})

	got, err := set.Apply(0, CandidateEdit{
		CategoryNameGuess: strPtr("Groceries"),
		CategoryID:        strPtr("cat-rent"),
	}, testCatalog())
	require.NoError(t, err)

	edited, _ := got.Get(0)
	assert.Equal(t, "cat-rent", edited.CategoryID)
}

func TestApply_TypeChange(t *testing.T) {
	c := validExpense()
	c.CategoryNameGuess = "Salary"
	set := NewReviewSet([]domain.Candidate{c})

	got, err := set.Apply(0, CandidateEdit{Type: typePtr(domain.TypeIncome)}, testCatalog())
	require.NoError(t, err)

	edited, _ := got.Get(0)
	assert.Equal(t, domain.TypeIncome, edited.Type)
	assert.Empty(t, edited.PaymentMethodID)
	assert.Empty(t, edited.ExpenseType)
	assert.Equal(t, "cat-salary", edited.CategoryID)
}

func TestApply_IndexOutOfRange(t *testing.T) {
	set := NewReviewSet([]domain.Candidate{validExpense()})

	_, err := set.Apply(3, CandidateEdit{}, testCatalog())
	assert.Error(t, err)
}

func TestAdd(t *testing.T) {
	set := NewReviewSet([]domain.Candidate{validExpense()})

	got := set.Add(domain.Candidate{
		Type:              domain.TypeExpense,
		Description:       "Metro card",
		CategoryNameGuess: "groceries",
		Errors:            []string{"stale annotation"},
	}, testCatalog())

	require.Equal(t, 2, got.Len())
	assert.Equal(t, 1, set.Len()) // original untouched

	c, _ := got.Get(1)
	assert.Equal(t, domain.OriginManual, c.Origin)
	assert.Equal(t, 2, c.Position)
	assert.Equal(t, "cat-groceries", c.CategoryID)
	assert.True(t, c.Clean())
}

func TestKeep(t *testing.T) {
	set := NewReviewSet([]domain.Candidate{
		{Description: "a"},
		{Description: "b"},
		{Description: "c"},
	})

	got := set.keep(map[int]bool{0: true, 2: true})
	require.Equal(t, 2, got.Len())
	assert.Equal(t, "a", got.Candidates[0].Description)
	assert.Equal(t, "c", got.Candidates[1].Description)

	assert.Equal(t, 0, set.keep(nil).Len())
}
