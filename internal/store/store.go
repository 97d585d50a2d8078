// ABOUTME: Store interface and data types for campaign-gateway persistence
// ABOUTME: Defines Session, Event structs and the Store interface for session registries

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested session does not exist.
var ErrNotFound = errors.New("session not found")

// ErrTerminal is returned when a mutation is attempted on a session whose
// workflow has already reached a terminal state.
var ErrTerminal = errors.New("session is terminal")

// ErrInvalidSpec is returned when a campaign spec is missing required fields.
var ErrInvalidSpec = errors.New("invalid campaign spec")

// State is a workflow state for a review session.
type State string

const (
	StateInitializing   State = "initializing"
	StatePendingReview  State = "pending_review"
	StateRequestingInfo State = "requesting_info"
	StateRevising       State = "revising"
	StateApproved       State = "approved"
	StateRejected       State = "rejected"
	StateEscalated      State = "escalated"
)

// Terminal reports whether no further transitions are accepted from s.
func (s State) Terminal() bool {
	switch s {
	case StateApproved, StateRejected, StateEscalated:
		return true
	}
	return false
}

// Actor identifies who triggered a history event.
type Actor string

const (
	ActorSystem Actor = "system"
	ActorHuman  Actor = "human"
)

// EventKind categorizes the kind of history event.
type EventKind string

const (
	EventKindWorkflowStarted   EventKind = "workflow_started"
	EventKindProposalGenerated EventKind = "proposal_generated"
	EventKindResearchAdded     EventKind = "research_added"
	EventKindProposalRevised   EventKind = "proposal_revised"
	EventKindApproved          EventKind = "approved"
	EventKindRejected          EventKind = "rejected"
	EventKindEscalated         EventKind = "escalated"
	EventKindGenerationFailed  EventKind = "generation_failed"
	EventKindNoise             EventKind = "noise"
)

// Event is one entry in a session's append-only audit history.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Actor     Actor     `json:"actor"`
	Kind      EventKind `json:"kind"`
	Intent    string    `json:"intent,omitempty"`  // triggering intent, if any
	Content   string    `json:"content,omitempty"` // generated content or raw feedback
	Detail    string    `json:"detail,omitempty"`  // reason, diff, or error text
	State     State     `json:"state"`             // state after the event
}

// CampaignSpec is the immutable input supplied when a workflow starts.
type CampaignSpec struct {
	ProductName  string `json:"product_name"`
	CampaignGoal string `json:"campaign_goal"`
	TotalBudget  string `json:"total_budget"`
}

// Validate checks that every required field is present.
func (c CampaignSpec) Validate() error {
	for name, v := range map[string]string{
		"product_name":  c.ProductName,
		"campaign_goal": c.CampaignGoal,
		"total_budget":  c.TotalBudget,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidSpec, name)
		}
	}
	return nil
}

// ResearchNote is one entry in a session's accumulated research context.
type ResearchNote struct {
	Topic     string    `json:"topic"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is one campaign's end-to-end review lifecycle.
type Session struct {
	ID             string
	State          State
	Spec           CampaignSpec
	Proposal       string // latest generated/revised proposal, never empty once stored
	Research       []ResearchNote
	History        []Event
	IterationCount int // revision cycles applied so far
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Clone returns a deep copy so callers never share mutable slices.
func (s *Session) Clone() *Session {
	out := *s
	out.Research = append([]ResearchNote(nil), s.Research...)
	out.History = append([]Event(nil), s.History...)
	return &out
}

// Summary is the listing view of a session.
type Summary struct {
	ID             string
	State          State
	ProductName    string
	IterationCount int
	CreatedAt      time.Time
}

// Summarize reduces a session to its listing view.
func (s *Session) Summarize() *Summary {
	return &Summary{
		ID:             s.ID,
		State:          s.State,
		ProductName:    s.Spec.ProductName,
		IterationCount: s.IterationCount,
		CreatedAt:      s.CreatedAt,
	}
}

// Store is the session registry. Update must be atomic per id: concurrent
// updates to the same session serialize, and readers never observe a
// half-written Session.
type Store interface {
	// Create registers a new session. The session's ID must be unique.
	Create(ctx context.Context, session *Session) error

	// Get returns a snapshot of the session, or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Update applies mutate to the current session value and commits the
	// result. If mutate returns an error nothing is committed and the error
	// is returned unchanged. UpdatedAt is refreshed on commit.
	Update(ctx context.Context, id string, mutate func(*Session) error) (*Session, error)

	// List returns summaries of all sessions in creation order.
	List(ctx context.Context) ([]*Summary, error)
}
