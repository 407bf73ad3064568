package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"cloud.google.com/go/civil"

	"github.com/dvloznov/pocket-ledger/internal/api/middleware"
	"github.com/dvloznov/pocket-ledger/internal/domain"
	"github.com/dvloznov/pocket-ledger/internal/ingest"
	"github.com/dvloznov/pocket-ledger/internal/session"
	"github.com/dvloznov/pocket-ledger/internal/store"
	"github.com/rs/zerolog"
)

// maxReceiptBytes caps receipt uploads; anything bigger is not a phone
// photo of a receipt.
const maxReceiptBytes = 10 << 20

// IngestHandler owns the parse/review/submit endpoints of the
// ingestion pipeline.
type IngestHandler struct {
	pipeline *ingest.Pipeline
	sessions *session.Store
	log      zerolog.Logger
}

// NewIngestHandler creates an ingestion handler.
func NewIngestHandler(pipeline *ingest.Pipeline, sessions *session.Store, log zerolog.Logger) *IngestHandler {
	return &IngestHandler{
		pipeline: pipeline,
		sessions: sessions,
		log:      log,
	}
}

// CreateSession handles POST /api/sessions
func (h *IngestHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.Create()
	middleware.WriteJSON(w, http.StatusCreated, sess)
}

// GetSession handles GET /api/sessions/{id}
func (h *IngestHandler) GetSession(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, sess)
}

// ParseBulk handles POST /api/sessions/{id}/parse/bulk
func (h *IngestHandler) ParseBulk(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	prevPhase := sess.Phase
	sess.Phase = session.PhaseParsing
	if err := h.sessions.Save(sess); err != nil {
		h.log.Error().Err(err).Msg("Failed to save session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	set, err := h.pipeline.ParseBulk(req.Text)
	if err != nil {
		// A failed parse attempt leaves the prior review state untouched.
		h.revertPhase(sess, prevPhase)
		h.writeParseError(w, err)
		return
	}

	sess.Set = set
	sess.Message = ""
	sess.Phase = session.PhaseReviewing
	sess.Outcome = ""
	if err := h.sessions.Save(sess); err != nil {
		h.log.Error().Err(err).Msg("Failed to save session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, sess)
}

// ParseText handles POST /api/sessions/{id}/parse/text
func (h *IngestHandler) ParseText(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	prevPhase := sess.Phase
	sess.Phase = session.PhaseParsing
	if err := h.sessions.Save(sess); err != nil {
		h.log.Error().Err(err).Msg("Failed to save session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	set, summary, err := h.pipeline.ParseFreeText(r.Context(), req.Text)
	if err != nil {
		h.revertPhase(sess, prevPhase)
		h.writeParseError(w, err)
		return
	}

	sess.Set = set
	sess.Message = summary
	sess.Phase = session.PhaseReviewing
	sess.Outcome = ""
	if err := h.sessions.Save(sess); err != nil {
		h.log.Error().Err(err).Msg("Failed to save session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, sess)
}

// ParseReceipt handles POST /api/sessions/{id}/parse/receipt
// The request body is the raw image; Content-Type carries its MIME type.
func (h *IngestHandler) ParseReceipt(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	mimeType := r.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	image, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReceiptBytes))
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read image body")
		return
	}

	prevPhase := sess.Phase
	sess.Phase = session.PhaseParsing
	if err := h.sessions.Save(sess); err != nil {
		h.log.Error().Err(err).Msg("Failed to save session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	set, message, err := h.pipeline.ParseReceiptImage(r.Context(), mimeType, image)
	if err != nil {
		h.revertPhase(sess, prevPhase)
		h.writeParseError(w, err)
		return
	}

	sess.Set = set
	sess.Message = message
	sess.Phase = session.PhaseReviewing
	sess.Outcome = ""
	if err := h.sessions.Save(sess); err != nil {
		h.log.Error().Err(err).Msg("Failed to save session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, sess)
}

// AddCandidate handles POST /api/sessions/{id}/candidates
// The body is a candidate in the manual-form shape; it joins the review
// set and goes through the same validation as parsed candidates.
func (h *IngestHandler) AddCandidate(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	var c domain.Candidate
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sess.Set = sess.Set.Add(c, h.pipeline.Catalog())
	sess.Phase = session.PhaseReviewing
	if err := h.sessions.Save(sess); err != nil {
		h.log.Error().Err(err).Msg("Failed to save session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, sess)
}

// EditCandidate handles PATCH /api/sessions/{id}/candidates/{index}
func (h *IngestHandler) EditCandidate(w http.ResponseWriter, r *http.Request, sessionID, indexStr string) {
	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	index, err := strconv.Atoi(indexStr)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid candidate index")
		return
	}

	var edit ingest.CandidateEdit
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	set, err := sess.Set.Apply(index, edit, h.pipeline.Catalog())
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess.Set = set
	if err := h.sessions.Save(sess); err != nil {
		h.log.Error().Err(err).Msg("Failed to save session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, sess)
}

// Submit handles POST /api/sessions/{id}/submit
// Candidates that fail validation or persistence stay in the session
// for correction; the response reports exact per-item outcomes. The
// session moves through the validating and committing phases on the
// way, so a concurrent GetSession sees where a slow submit is.
func (h *IngestHandler) Submit(w http.ResponseWriter, r *http.Request, sessionID string) {
	sess, err := h.sessions.Get(sessionID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "Session not found")
		return
	}

	if sess.Set.Len() == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "Nothing to submit")
		return
	}

	sess.Phase = session.PhaseValidating
	if err := h.sessions.Save(sess); err != nil {
		h.log.Error().Err(err).Msg("Failed to save session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	prep := h.pipeline.ValidateSet(sess.Set)

	sess.Phase = session.PhaseCommitting
	if err := h.sessions.Save(sess); err != nil {
		h.log.Error().Err(err).Msg("Failed to save session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	result, remaining := h.pipeline.CommitPrepared(r.Context(), prep)

	sess.Set = remaining
	sess.Phase = session.PhaseSettled
	sess.Outcome = result.Outcome
	if err := h.sessions.Save(sess); err != nil {
		h.log.Error().Err(err).Msg("Failed to save session")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"result":  result,
		"session": sess,
	})
}

// revertPhase restores the phase a failed parse attempt replaced.
func (h *IngestHandler) revertPhase(sess *session.Session, phase session.Phase) {
	sess.Phase = phase
	if err := h.sessions.Save(sess); err != nil {
		h.log.Error().Err(err).Msg("Failed to restore session phase")
	}
}

// writeParseError maps pipeline-scoped parse failures to HTTP
// responses. Model failures are shown verbatim so the user sees what
// actually went wrong.
func (h *IngestHandler) writeParseError(w http.ResponseWriter, err error) {
	var modelErr *ingest.ModelError
	switch {
	case errors.Is(err, ingest.ErrEmptyInput):
		middleware.WriteError(w, http.StatusBadRequest, "Input is empty")
	case errors.As(err, &modelErr):
		h.log.Error().Err(err).Msg("Model call failed")
		middleware.WriteError(w, http.StatusBadGateway, modelErr.Error())
	default:
		h.log.Error().Err(err).Msg("Parse failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Parse failed")
	}
}

// TransactionsHandler handles transaction persistence endpoints.
type TransactionsHandler struct {
	store store.TransactionStore
	log   zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(st store.TransactionStore, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		store: st,
		log:   log,
	}
}

// ListTransactions handles GET /api/transactions?from=...&to=...
// The UI always re-fetches the full list after a commit; there is no
// incremental merge. from/to are inclusive YYYY-MM-DD bounds.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	var from, to civil.Date
	var err error
	if v := r.URL.Query().Get("from"); v != "" {
		if from, err = civil.ParseDate(v); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid 'from' date, expected YYYY-MM-DD")
			return
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if to, err = civil.ParseDate(v); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, "Invalid 'to' date, expected YYYY-MM-DD")
			return
		}
	}

	txs, err := h.store.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	filtered := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if from.IsValid() && tx.Date.Before(from) {
			continue
		}
		if to.IsValid() && tx.Date.After(to) {
			continue
		}
		filtered = append(filtered, tx)
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": filtered,
		"count":        len(filtered),
	})
}

// DeleteTransaction handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		middleware.WriteError(w, http.StatusNotFound, "Transaction not found")
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("transaction_id", id).Msg("Failed to delete transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{"id": id, "status": "deleted"})
}

// DeleteTransactions handles POST /api/transactions/delete
// Deletion is per-record; the aggregate result reports partial failure
// instead of rolling back.
func (h *TransactionsHandler) DeleteTransactions(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.IDs) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "ids is required")
		return
	}

	result, err := h.store.DeleteMany(r.Context(), req.IDs)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to delete transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete transactions")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, result)
}

// CatalogHandler serves the reference data the review UI binds its
// selectors to.
type CatalogHandler struct {
	pipeline *ingest.Pipeline
	log      zerolog.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(pipeline *ingest.Pipeline, log zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		pipeline: pipeline,
		log:      log,
	}
}

// ListCategories handles GET /api/categories
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats := h.pipeline.Catalog().Categories
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": cats,
		"count":      len(cats),
	})
}

// ListPaymentMethods handles GET /api/payment-methods
func (h *CatalogHandler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	pms := h.pipeline.Catalog().PaymentMethods
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"paymentMethods": pms,
		"count":          len(pms),
	})
}
