// ABOUTME: HTTP handlers for the workflow request surface
// ABOUTME: start_workflow, get_status, submit_feedback, list_sessions, health

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/2389/campaign-gateway/internal/dedupe"
	"github.com/2389/campaign-gateway/internal/store"
	"github.com/2389/campaign-gateway/internal/workflow"
)

// StartWorkflowRequest is the JSON request body for POST /workflows.
type StartWorkflowRequest struct {
	ProductName  string `json:"product_name"`
	CampaignGoal string `json:"campaign_goal"`
	TotalBudget  string `json:"total_budget"`
}

// EventResponse is one history entry in a status response.
type EventResponse struct {
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Actor     string `json:"actor"`
	Kind      string `json:"kind"`
	Intent    string `json:"intent,omitempty"`
	Content   string `json:"content,omitempty"`
	Detail    string `json:"detail,omitempty"`
	State     string `json:"state"`
}

// ResearchNoteResponse is one research context entry.
type ResearchNoteResponse struct {
	Topic     string `json:"topic"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

// StartWorkflowResponse is the JSON response for POST /workflows.
type StartWorkflowResponse struct {
	SessionID string `json:"session_id"`
	State     string `json:"state"`
	Proposal  string `json:"proposal"`
}

// StatusResponse is the JSON response for GET /workflows/{id}.
type StatusResponse struct {
	SessionID       string                 `json:"session_id"`
	State           string                 `json:"state"`
	IterationCount  int                    `json:"iteration_count"`
	Proposal        string                 `json:"proposal"`
	CampaignSpec    store.CampaignSpec     `json:"campaign_spec"`
	ResearchContext []ResearchNoteResponse `json:"research_context"`
	History         []EventResponse        `json:"history"`
	CreatedAt       string                 `json:"created_at"`
	UpdatedAt       string                 `json:"updated_at"`
}

// FeedbackRequest is the JSON request body for POST /workflows/{id}/feedback.
type FeedbackRequest struct {
	Feedback string `json:"feedback"`
}

// FeedbackResponse is the JSON response for a processed feedback turn.
type FeedbackResponse struct {
	SessionID      string `json:"session_id"`
	State          string `json:"state"`
	Intent         string `json:"intent"`
	IterationCount int    `json:"iteration_count"`
	Proposal       string `json:"proposal"`
	// Clarification is set when the feedback was not understood and the
	// session did not move.
	Clarification string `json:"clarification,omitempty"`
}

// SessionSummaryResponse is one entry in the GET /workflows listing.
type SessionSummaryResponse struct {
	SessionID      string `json:"session_id"`
	State          string `json:"state"`
	ProductName    string `json:"product_name"`
	IterationCount int    `json:"iteration_count"`
	CreatedAt      string `json:"created_at"`
}

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status         string `json:"status"`
	ActiveSessions int    `json:"active_sessions"`
}

// WorkflowHandler serves the workflow request surface.
type WorkflowHandler struct {
	engine *workflow.Engine
	dedupe *dedupe.Cache
}

// NewWorkflowHandler creates the handler. cache may be nil to disable
// idempotency-key handling.
func NewWorkflowHandler(engine *workflow.Engine, cache *dedupe.Cache) *WorkflowHandler {
	return &WorkflowHandler{engine: engine, dedupe: cache}
}

// Start handles POST /workflows.
func (h *WorkflowHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req StartWorkflowRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.engine.Start(r.Context(), store.CampaignSpec{
		ProductName:  req.ProductName,
		CampaignGoal: req.CampaignGoal,
		TotalBudget:  req.TotalBudget,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, StartWorkflowResponse{
		SessionID: session.ID,
		State:     string(session.State),
		Proposal:  session.Proposal,
	})
}

// Status handles GET /workflows/{id}.
func (h *WorkflowHandler) Status(w http.ResponseWriter, r *http.Request) {
	session, err := h.engine.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statusResponse(session))
}

// Feedback handles POST /workflows/{id}/feedback.
func (h *WorkflowHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Reserve the idempotency key up front so concurrent replays collide,
	// but release it if the turn does not commit: a failed turn must stay
	// retryable with the same key.
	var dedupeKey string
	if key := r.Header.Get("Idempotency-Key"); key != "" && h.dedupe != nil {
		dedupeKey = id + ":" + key
		if h.dedupe.CheckAndMark(dedupeKey) {
			writeError(w, http.StatusConflict, "duplicate submission: idempotency key already used")
			return
		}
	}
	release := func() {
		if dedupeKey != "" {
			h.dedupe.Forget(dedupeKey)
		}
	}

	var req FeedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		release()
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Feedback == "" {
		release()
		writeError(w, http.StatusBadRequest, "feedback is required")
		return
	}

	res, err := h.engine.SubmitFeedback(r.Context(), id, req.Feedback)
	if err != nil {
		release()
		writeDomainError(w, err)
		return
	}

	resp := FeedbackResponse{
		SessionID:      res.Session.ID,
		State:          string(res.Session.State),
		Intent:         string(res.Intent.Kind),
		IterationCount: res.Session.IterationCount,
		Proposal:       res.Session.Proposal,
	}
	if res.Clarify {
		resp.Clarification = "feedback not understood; try approve, reject, escalate:<reason>, request_info:<topic>, or revise to <guidance>"
	}
	writeJSON(w, http.StatusOK, resp)
}

// List handles GET /workflows.
func (h *WorkflowHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.engine.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	out := make([]SessionSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, SessionSummaryResponse{
			SessionID:      s.ID,
			State:          string(s.State),
			ProductName:    s.ProductName,
			IterationCount: s.IterationCount,
			CreatedAt:      s.CreatedAt.Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

// Health handles GET /health.
func (h *WorkflowHandler) Health(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.engine.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		ActiveSessions: len(summaries),
	})
}

func statusResponse(session *store.Session) StatusResponse {
	research := make([]ResearchNoteResponse, 0, len(session.Research))
	for _, note := range session.Research {
		research = append(research, ResearchNoteResponse{
			Topic:     note.Topic,
			Content:   note.Content,
			CreatedAt: note.CreatedAt.Format(time.RFC3339),
		})
	}
	history := make([]EventResponse, 0, len(session.History))
	for _, ev := range session.History {
		history = append(history, EventResponse{
			ID:        ev.ID,
			Timestamp: ev.Timestamp.Format(time.RFC3339),
			Actor:     string(ev.Actor),
			Kind:      string(ev.Kind),
			Intent:    ev.Intent,
			Content:   ev.Content,
			Detail:    ev.Detail,
			State:     string(ev.State),
		})
	}
	return StatusResponse{
		SessionID:       session.ID,
		State:           string(session.State),
		IterationCount:  session.IterationCount,
		Proposal:        session.Proposal,
		CampaignSpec:    session.Spec,
		ResearchContext: research,
		History:         history,
		CreatedAt:       session.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       session.UpdatedAt.Format(time.RFC3339),
	}
}
