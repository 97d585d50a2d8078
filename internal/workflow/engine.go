// ABOUTME: Workflow engine applying the review state machine to sessions
// ABOUTME: Classifies feedback, enforces legal transitions, and commits audit events

package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/2389/campaign-gateway/internal/intent"
	"github.com/2389/campaign-gateway/internal/llm"
	"github.com/2389/campaign-gateway/internal/store"
)

// Engine is the review state machine. It owns no session data itself;
// everything durable lives in the Store, and every transition commits
// exactly one audit event.
type Engine struct {
	store      store.Store
	gen        llm.Generator
	classifier intent.Classifier
	locks      *sessionLocks
	logger     *slog.Logger
}

// New creates a workflow engine.
func New(st store.Store, gen llm.Generator, classifier intent.Classifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:      st,
		gen:        gen,
		classifier: classifier,
		locks:      newSessionLocks(),
		logger:     logger.With("component", "workflow"),
	}
}

// FeedbackResult is what a feedback turn hands back to the caller.
type FeedbackResult struct {
	Session *store.Session
	Intent  intent.Intent
	// Clarify is set when the feedback was unrecognized: the session is
	// unchanged and the reviewer should restate their intent.
	Clarify bool
}

// Start validates the spec, generates the first proposal, and registers the
// session in pending_review as a single commit. A failed initial generation
// creates nothing: the caller retries by starting again, and the store never
// holds a session without a proposal.
func (e *Engine) Start(ctx context.Context, spec store.CampaignSpec) (*store.Session, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	started := time.Now().UTC()

	// Let the generation and its commit finish even if the caller walks
	// away; a half-applied first turn would be invisible to retries.
	turnCtx := context.WithoutCancel(ctx)

	proposal, err := e.gen.GenerateInitial(turnCtx, spec)
	if err != nil {
		e.logger.Warn("initial generation failed",
			"product", spec.ProductName, "error", err)
		return nil, err
	}

	now := time.Now().UTC()
	session := &store.Session{
		ID:       uuid.New().String(),
		State:    store.StatePendingReview,
		Spec:     spec,
		Proposal: proposal,
		History: []store.Event{
			{
				ID:        uuid.New().String(),
				Timestamp: started,
				Actor:     store.ActorSystem,
				Kind:      store.EventKindWorkflowStarted,
				State:     store.StateInitializing,
			},
			{
				ID:        uuid.New().String(),
				Timestamp: now,
				Actor:     store.ActorSystem,
				Kind:      store.EventKindProposalGenerated,
				Content:   proposal,
				State:     store.StatePendingReview,
			},
		},
		CreatedAt: started,
		UpdatedAt: now,
	}
	if err := e.store.Create(turnCtx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	e.logger.Info("workflow started",
		"session_id", session.ID,
		"product", spec.ProductName,
		"budget", spec.TotalBudget)
	return session, nil
}

// SubmitFeedback runs one feedback turn: classify, enforce the transition
// table, invoke the generation gateway where the intent demands it, and
// commit. Turns on the same session serialize; a gateway failure leaves the
// session in pending_review with only a failure event recorded.
func (e *Engine) SubmitFeedback(ctx context.Context, id, raw string) (*FeedbackResult, error) {
	resolved, err := e.classifier.Classify(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("classifying feedback: %w", err)
	}

	unlock := e.locks.acquire(id)
	defer unlock()

	session, err := e.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.State.Terminal() {
		return nil, fmt.Errorf("%w: state %s accepts no feedback", store.ErrTerminal, session.State)
	}

	e.logger.Info("feedback received",
		"session_id", id,
		"intent", string(resolved.Kind))

	turnCtx := context.WithoutCancel(ctx)

	switch resolved.Kind {
	case intent.KindApprove:
		return e.close(turnCtx, id, resolved, store.StateApproved, store.EventKindApproved, "")
	case intent.KindReject:
		return e.close(turnCtx, id, resolved, store.StateRejected, store.EventKindRejected, "")
	case intent.KindEscalate:
		return e.close(turnCtx, id, resolved, store.StateEscalated, store.EventKindEscalated, resolved.Reason)
	case intent.KindRequestInfo:
		return e.research(turnCtx, id, resolved, session)
	case intent.KindRevise:
		return e.revise(turnCtx, id, resolved, session)
	case intent.KindUnrecognized:
		return e.clarify(turnCtx, id, resolved)
	}
	return nil, fmt.Errorf("unhandled intent kind %q", resolved.Kind)
}

// Status returns a snapshot of the session. It never creates one.
func (e *Engine) Status(ctx context.Context, id string) (*store.Session, error) {
	return e.store.Get(ctx, id)
}

// List returns summaries of all sessions in creation order.
func (e *Engine) List(ctx context.Context) ([]*store.Summary, error) {
	return e.store.List(ctx)
}

// close commits a terminal transition (approve, reject, escalate).
func (e *Engine) close(ctx context.Context, id string, resolved intent.Intent, next store.State, kind store.EventKind, detail string) (*FeedbackResult, error) {
	session, err := e.store.Update(ctx, id, func(s *store.Session) error {
		s.State = next
		s.History = append(s.History, store.Event{
			ID:        uuid.New().String(),
			Timestamp: time.Now().UTC(),
			Actor:     store.ActorHuman,
			Kind:      kind,
			Intent:    string(resolved.Kind),
			Detail:    detail,
			State:     next,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("workflow closed", "session_id", id, "state", string(next))
	return &FeedbackResult{Session: session, Intent: resolved}, nil
}

// research handles RequestInfo: publish the transient requesting_info state
// for pollers, call the gateway, then collapse back to pending_review with
// the note merged into the research context.
func (e *Engine) research(ctx context.Context, id string, resolved intent.Intent, session *store.Session) (*FeedbackResult, error) {
	if err := e.publishTransient(ctx, id, store.StateRequestingInfo); err != nil {
		return nil, err
	}

	content, err := e.gen.Research(ctx, session.Spec, resolved.Topic)
	if err != nil {
		e.recordFailure(ctx, id, err)
		return nil, err
	}

	session, err = e.store.Update(ctx, id, func(s *store.Session) error {
		s.State = store.StatePendingReview
		s.Research = append(s.Research, store.ResearchNote{
			Topic:     resolved.Topic,
			Content:   content,
			CreatedAt: time.Now().UTC(),
		})
		s.History = append(s.History, store.Event{
			ID:        uuid.New().String(),
			Timestamp: time.Now().UTC(),
			Actor:     store.ActorHuman,
			Kind:      store.EventKindResearchAdded,
			Intent:    string(resolved.Kind),
			Content:   content,
			Detail:    resolved.Topic,
			State:     store.StatePendingReview,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &FeedbackResult{Session: session, Intent: resolved}, nil
}

// revise handles Revise: publish the transient revising state, call the
// gateway with guidance plus accumulated research, then commit the new
// proposal with its diff and bump the iteration count.
func (e *Engine) revise(ctx context.Context, id string, resolved intent.Intent, session *store.Session) (*FeedbackResult, error) {
	if err := e.publishTransient(ctx, id, store.StateRevising); err != nil {
		return nil, err
	}

	proposal, err := e.gen.Revise(ctx, session.Spec, session.Proposal, resolved.Guidance, session.Research)
	if err != nil {
		e.recordFailure(ctx, id, err)
		return nil, err
	}
	diff := revisionDiff(session.Proposal, proposal)

	session, err = e.store.Update(ctx, id, func(s *store.Session) error {
		s.State = store.StatePendingReview
		s.Proposal = proposal
		s.IterationCount++
		s.History = append(s.History, store.Event{
			ID:        uuid.New().String(),
			Timestamp: time.Now().UTC(),
			Actor:     store.ActorHuman,
			Kind:      store.EventKindProposalRevised,
			Intent:    string(resolved.Kind),
			Content:   proposal,
			Detail:    diff,
			State:     store.StatePendingReview,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &FeedbackResult{Session: session, Intent: resolved}, nil
}

// clarify handles Unrecognized feedback: the state machine does not move,
// and the raw input is kept only as a noise record.
func (e *Engine) clarify(ctx context.Context, id string, resolved intent.Intent) (*FeedbackResult, error) {
	session, err := e.store.Update(ctx, id, func(s *store.Session) error {
		s.History = append(s.History, store.Event{
			ID:        uuid.New().String(),
			Timestamp: time.Now().UTC(),
			Actor:     store.ActorHuman,
			Kind:      store.EventKindNoise,
			Intent:    string(intent.KindUnrecognized),
			Content:   resolved.RawText,
			State:     s.State,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &FeedbackResult{Session: session, Intent: resolved, Clarify: true}, nil
}

// publishTransient commits a transient state so a concurrent poller can see
// the turn is in flight. No event is appended; the turn's single event lands
// when the transition completes.
func (e *Engine) publishTransient(ctx context.Context, id string, transient store.State) error {
	_, err := e.store.Update(ctx, id, func(s *store.Session) error {
		s.State = transient
		return nil
	})
	return err
}

// recordFailure appends a generation_failed event and restores the session
// to pending_review. The failure is audit-logged but the transition never
// happened.
func (e *Engine) recordFailure(ctx context.Context, id string, cause error) {
	_, err := e.store.Update(ctx, id, func(s *store.Session) error {
		s.State = store.StatePendingReview
		s.History = append(s.History, store.Event{
			ID:        uuid.New().String(),
			Timestamp: time.Now().UTC(),
			Actor:     store.ActorSystem,
			Kind:      store.EventKindGenerationFailed,
			Detail:    cause.Error(),
			State:     store.StatePendingReview,
		})
		return nil
	})
	if err != nil {
		e.logger.Error("failed to record generation failure",
			"session_id", id, "error", err)
	}
}
