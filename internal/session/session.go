package session

import (
	"time"

	"github.com/dvloznov/pocket-ledger/internal/ingest"
)

// Phase tracks where a review session is in the ingestion cycle.
// Settled is terminal per submission attempt; the next parse or submit
// starts a fresh cycle over whatever candidates remain.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseParsing    Phase = "parsing"
	PhaseReviewing  Phase = "reviewing"
	PhaseValidating Phase = "validating"
	PhaseCommitting Phase = "committing"
	PhaseSettled    Phase = "settled"
)

// Session is one user's active ingestion/review/commit cycle. At most
// one cycle is active per session: a new parse request discards any
// not-yet-submitted review state.
type Session struct {
	ID string `json:"id"`

	Phase   Phase            `json:"phase"`
	Set     ingest.ReviewSet `json:"reviewSet"`
	Message string           `json:"message,omitempty"` // model summary for empty AI results

	// Outcome is set once Phase is Settled.
	Outcome ingest.Outcome `json:"outcome,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
