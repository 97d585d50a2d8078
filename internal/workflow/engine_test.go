// ABOUTME: Tests for the workflow engine state machine
// ABOUTME: Covers transitions, terminal enforcement, gateway failure, and racing turns

package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/campaign-gateway/internal/intent"
	"github.com/2389/campaign-gateway/internal/llm"
	"github.com/2389/campaign-gateway/internal/store"
)

func testSpec() store.CampaignSpec {
	return store.CampaignSpec{
		ProductName:  "EcoFresh Smoothies",
		CampaignGoal: "Health launch",
		TotalBudget:  "$500K",
	}
}

// scriptedGenerator lets tests fail specific operations or block mid-call.
type scriptedGenerator struct {
	llm.StaticGenerator

	mu        sync.Mutex
	failOps   map[string]error
	blockOn   chan struct{} // if set, Revise/Research wait on it before returning
	reviseCnt int
}

func (g *scriptedGenerator) fail(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failOps == nil {
		g.failOps = make(map[string]error)
	}
	g.failOps[op] = err
}

func (g *scriptedGenerator) failure(op string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failOps[op]; err != nil {
		return &llm.GenerationError{Op: op, Err: err}
	}
	return nil
}

func (g *scriptedGenerator) wait() {
	g.mu.Lock()
	ch := g.blockOn
	g.mu.Unlock()
	if ch != nil {
		<-ch
	}
}

func (g *scriptedGenerator) GenerateInitial(ctx context.Context, spec store.CampaignSpec) (string, error) {
	if err := g.failure("generate_initial"); err != nil {
		return "", err
	}
	return g.StaticGenerator.GenerateInitial(ctx, spec)
}

func (g *scriptedGenerator) Revise(ctx context.Context, spec store.CampaignSpec, proposal, guidance string, research []store.ResearchNote) (string, error) {
	g.wait()
	if err := g.failure("revise"); err != nil {
		return "", err
	}
	g.mu.Lock()
	g.reviseCnt++
	n := g.reviseCnt
	g.mu.Unlock()
	return fmt.Sprintf("revision %d (%s)\n%s", n, guidance, proposal), nil
}

func (g *scriptedGenerator) Research(ctx context.Context, spec store.CampaignSpec, topic string) (string, error) {
	g.wait()
	if err := g.failure("research"); err != nil {
		return "", err
	}
	return g.StaticGenerator.Research(ctx, spec, topic)
}

func newTestEngine(t *testing.T) (*Engine, *scriptedGenerator, store.Store) {
	t.Helper()
	st := store.NewMemoryStore()
	gen := &scriptedGenerator{}
	eng := New(st, gen, intent.NewChain(nil, nil), nil)
	return eng, gen, st
}

func mustStart(t *testing.T, eng *Engine) *store.Session {
	t.Helper()
	session, err := eng.Start(context.Background(), testSpec())
	require.NoError(t, err)
	return session
}

func TestStart(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	session := mustStart(t, eng)
	assert.Equal(t, store.StatePendingReview, session.State)
	assert.NotEmpty(t, session.Proposal)
	assert.Zero(t, session.IterationCount)
	require.Len(t, session.History, 2)
	assert.Equal(t, store.EventKindWorkflowStarted, session.History[0].Kind)
	assert.Equal(t, store.EventKindProposalGenerated, session.History[1].Kind)
}

func TestStart_InvalidSpec(t *testing.T) {
	eng, _, st := newTestEngine(t)

	_, err := eng.Start(context.Background(), store.CampaignSpec{ProductName: "x"})
	assert.ErrorIs(t, err, store.ErrInvalidSpec)

	summaries, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestStart_GenerationFailureCreatesNothing(t *testing.T) {
	eng, gen, st := newTestEngine(t)
	ctx := context.Background()
	gen.fail("generate_initial", fmt.Errorf("provider down"))

	_, err := eng.Start(ctx, testSpec())
	var genErr *llm.GenerationError
	require.True(t, errors.As(err, &genErr))

	// Nothing is committed: no session exists without a proposal, and the
	// listing stays clean.
	summaries, err := st.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	// Starting again once the provider recovers works normally.
	gen.fail("generate_initial", nil)
	session, err := eng.Start(ctx, testSpec())
	require.NoError(t, err)
	assert.Equal(t, store.StatePendingReview, session.State)
	assert.NotEmpty(t, session.Proposal)
}

func TestSubmitFeedback_Approve(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	session := mustStart(t, eng)

	res, err := eng.SubmitFeedback(context.Background(), session.ID, "approve")
	require.NoError(t, err)
	assert.Equal(t, store.StateApproved, res.Session.State)
	assert.Equal(t, intent.KindApprove, res.Intent.Kind)
	assert.False(t, res.Clarify)

	last := res.Session.History[len(res.Session.History)-1]
	assert.Equal(t, store.EventKindApproved, last.Kind)
	assert.Equal(t, store.ActorHuman, last.Actor)
}

func TestSubmitFeedback_EscalateRecordsReason(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	session := mustStart(t, eng)

	res, err := eng.SubmitFeedback(context.Background(), session.ID, "escalate: needs CEO sign-off")
	require.NoError(t, err)
	assert.Equal(t, store.StateEscalated, res.Session.State)

	last := res.Session.History[len(res.Session.History)-1]
	assert.Equal(t, store.EventKindEscalated, last.Kind)
	assert.Equal(t, "needs CEO sign-off", last.Detail)
}

func TestSubmitFeedback_RequestInfo(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	session := mustStart(t, eng)

	res, err := eng.SubmitFeedback(context.Background(), session.ID, "request_info: brand safety concerns")
	require.NoError(t, err)
	assert.Equal(t, store.StatePendingReview, res.Session.State)
	require.Len(t, res.Session.Research, 1)
	assert.Equal(t, "brand safety concerns", res.Session.Research[0].Topic)
	assert.NotEmpty(t, res.Session.Research[0].Content)
	assert.Len(t, res.Session.History, 3)
	assert.Zero(t, res.Session.IterationCount)
}

func TestSubmitFeedback_Revise(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	session := mustStart(t, eng)

	res, err := eng.SubmitFeedback(context.Background(), session.ID, "revise to ensure brand safety")
	require.NoError(t, err)
	assert.Equal(t, store.StatePendingReview, res.Session.State)
	assert.Equal(t, 1, res.Session.IterationCount)
	assert.NotEqual(t, session.Proposal, res.Session.Proposal)

	last := res.Session.History[len(res.Session.History)-1]
	assert.Equal(t, store.EventKindProposalRevised, last.Kind)
	assert.Equal(t, res.Session.Proposal, last.Content)
	assert.NotEmpty(t, last.Detail, "revision diff should be recorded")
}

func TestSubmitFeedback_IterationCountsOnlyRevisions(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	session := mustStart(t, eng)
	ctx := context.Background()

	_, err := eng.SubmitFeedback(ctx, session.ID, "request_info: competitors")
	require.NoError(t, err)
	res, err := eng.SubmitFeedback(ctx, session.ID, "revise")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Session.IterationCount)
	res, err = eng.SubmitFeedback(ctx, session.ID, "revise again please")
	require.NoError(t, err)
	assert.Equal(t, 2, res.Session.IterationCount)
}

func TestSubmitFeedback_UnrecognizedLeavesStateAlone(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	session := mustStart(t, eng)

	res, err := eng.SubmitFeedback(context.Background(), session.ID, "banana")
	require.NoError(t, err)
	assert.True(t, res.Clarify)
	assert.Equal(t, store.StatePendingReview, res.Session.State)
	assert.Zero(t, res.Session.IterationCount)
	assert.Equal(t, session.Proposal, res.Session.Proposal)

	last := res.Session.History[len(res.Session.History)-1]
	assert.Equal(t, store.EventKindNoise, last.Kind)
	assert.Equal(t, "banana", last.Content)
}

func TestSubmitFeedback_TerminalRejectsFurtherFeedback(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	session := mustStart(t, eng)
	ctx := context.Background()

	approved, err := eng.SubmitFeedback(ctx, session.ID, "approve")
	require.NoError(t, err)

	_, err = eng.SubmitFeedback(ctx, session.ID, "reject")
	assert.ErrorIs(t, err, store.ErrTerminal)

	// Nothing moved.
	after, err := eng.Status(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StateApproved, after.State)
	assert.Equal(t, len(approved.Session.History), len(after.History))
	assert.Equal(t, approved.Session.IterationCount, after.IterationCount)
}

func TestSubmitFeedback_UnknownSession(t *testing.T) {
	eng, _, _ := newTestEngine(t)

	_, err := eng.SubmitFeedback(context.Background(), "nope", "approve")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSubmitFeedback_GatewayFailureLeavesSessionRetryable(t *testing.T) {
	eng, gen, _ := newTestEngine(t)
	session := mustStart(t, eng)
	ctx := context.Background()

	gen.fail("revise", fmt.Errorf("timeout"))
	_, err := eng.SubmitFeedback(ctx, session.ID, "revise to be safer")
	var genErr *llm.GenerationError
	require.True(t, errors.As(err, &genErr))

	after, err := eng.Status(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatePendingReview, after.State)
	assert.Equal(t, session.Proposal, after.Proposal)
	assert.Zero(t, after.IterationCount)
	last := after.History[len(after.History)-1]
	assert.Equal(t, store.EventKindGenerationFailed, last.Kind)

	// Same feedback succeeds once the gateway recovers.
	gen.fail("revise", nil)
	res, err := eng.SubmitFeedback(ctx, session.ID, "revise to be safer")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Session.IterationCount)
}

func TestSubmitFeedback_TransientStateObservableMidTurn(t *testing.T) {
	eng, gen, _ := newTestEngine(t)
	session := mustStart(t, eng)
	ctx := context.Background()

	release := make(chan struct{})
	gen.mu.Lock()
	gen.blockOn = release
	gen.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := eng.SubmitFeedback(ctx, session.ID, "revise")
		done <- err
	}()

	// Poll until the transient state is published.
	require.Eventually(t, func() bool {
		s, err := eng.Status(ctx, session.ID)
		require.NoError(t, err)
		return s.State == store.StateRevising
	}, 2*time.Second, 5*time.Millisecond)

	close(release)
	require.NoError(t, <-done)

	after, err := eng.Status(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, store.StatePendingReview, after.State)
}

func TestSubmitFeedback_RacingTurnsSerialize(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	session := mustStart(t, eng)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	feedback := []string{"approve", "reject"}
	for i := range feedback {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = eng.SubmitFeedback(ctx, session.ID, feedback[i])
		}(i)
	}
	wg.Wait()

	// Exactly one turn wins; the loser observes the terminal state.
	var terminal int
	for _, err := range errs {
		if errors.Is(err, store.ErrTerminal) {
			terminal++
		} else {
			require.NoError(t, err)
		}
	}
	assert.Equal(t, 1, terminal)

	after, err := eng.Status(ctx, session.ID)
	require.NoError(t, err)
	assert.True(t, after.State.Terminal())
	assert.Len(t, after.History, 3, "losing turn must not append an event")
}

func TestEndToEndReviewCycle(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	session, err := eng.Start(ctx, store.CampaignSpec{
		ProductName:  "EcoFresh Smoothies",
		CampaignGoal: "Health launch",
		TotalBudget:  "$500K",
	})
	require.NoError(t, err)
	require.Equal(t, store.StatePendingReview, session.State)
	require.NotEmpty(t, session.Proposal)
	original := session.Proposal

	res, err := eng.SubmitFeedback(ctx, session.ID, "request_info: brand safety concerns")
	require.NoError(t, err)
	require.Equal(t, store.StatePendingReview, res.Session.State)
	require.Len(t, res.Session.Research, 1)
	require.Equal(t, "brand safety concerns", res.Session.Research[0].Topic)

	res, err = eng.SubmitFeedback(ctx, session.ID, "revise to ensure brand safety")
	require.NoError(t, err)
	require.Equal(t, 1, res.Session.IterationCount)
	require.NotEqual(t, original, res.Session.Proposal)

	res, err = eng.SubmitFeedback(ctx, session.ID, "approve")
	require.NoError(t, err)
	require.Equal(t, store.StateApproved, res.Session.State)

	_, err = eng.SubmitFeedback(ctx, session.ID, "reject")
	require.ErrorIs(t, err, store.ErrTerminal)
}

func TestStatus_UnknownNeverCreates(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := eng.Status(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)

	summaries, err := eng.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
