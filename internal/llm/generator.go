// ABOUTME: Generator contract for the external proposal-generation capability
// ABOUTME: Typed GenerationError plus a deterministic offline implementation

package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/2389/campaign-gateway/internal/store"
)

// Generator wraps the external generation capability. Every call is a single
// blocking request with no side effect on local state; failures surface as a
// *GenerationError and are never swallowed.
type Generator interface {
	// GenerateInitial produces the first proposal for a campaign.
	GenerateInitial(ctx context.Context, spec store.CampaignSpec) (string, error)

	// Revise reworks the current proposal under the reviewer's guidance,
	// taking accumulated research into account.
	Revise(ctx context.Context, spec store.CampaignSpec, proposal, guidance string, research []store.ResearchNote) (string, error)

	// Research gathers supplementary findings on a topic.
	Research(ctx context.Context, spec store.CampaignSpec, topic string) (string, error)

	// Label classifies free-form feedback into one intent keyword. Used by
	// the classifier fallback, not by the workflow engine directly.
	Label(ctx context.Context, text string) (string, error)
}

// GenerationError is returned for any failed generation call. The workflow
// engine leaves the session unchanged when it sees one, so the caller can
// retry by resubmitting the same feedback.
type GenerationError struct {
	Op  string // "generate_initial", "revise", "research", "label"
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation %s failed: %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StaticGenerator is a deterministic Generator for tests and offline
// serving. Output is templated from the inputs so revisions visibly differ
// from what they replace.
type StaticGenerator struct{}

func (StaticGenerator) GenerateInitial(_ context.Context, spec store.CampaignSpec) (string, error) {
	return fmt.Sprintf(
		"# Campaign Proposal: %s\n\nGoal: %s\nBudget: %s\n\n"+
			"1. Paid social blitz across all major platforms\n"+
			"2. Aggressive conversion-focused messaging\n"+
			"3. Weekly KPI reviews against budget burn\n",
		spec.ProductName, spec.CampaignGoal, spec.TotalBudget), nil
}

func (StaticGenerator) Revise(_ context.Context, spec store.CampaignSpec, proposal, guidance string, research []store.ResearchNote) (string, error) {
	var topics []string
	for _, note := range research {
		topics = append(topics, note.Topic)
	}
	out := fmt.Sprintf("# Revised Proposal: %s\n\nGuidance applied: %s\n", spec.ProductName, guidance)
	if len(topics) > 0 {
		out += fmt.Sprintf("Research considered: %s\n", strings.Join(topics, ", "))
	}
	out += "\n" + proposal
	return out, nil
}

func (StaticGenerator) Research(_ context.Context, spec store.CampaignSpec, topic string) (string, error) {
	return fmt.Sprintf("Research findings on %q for %s: industry best practices, regulatory considerations, and known risks.",
		topic, spec.ProductName), nil
}

// Label applies the same keyword heuristics a small model would; enough for
// offline demos, not meant to be clever.
func (StaticGenerator) Label(_ context.Context, text string) (string, error) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "looks good") || strings.Contains(lower, "ship it"):
		return "approve", nil
	case strings.Contains(lower, "start over") || strings.Contains(lower, "no good"):
		return "reject", nil
	case strings.Contains(lower, "change") || strings.Contains(lower, "soften") || strings.Contains(lower, "rework"):
		return "revise", nil
	case strings.Contains(lower, "tell me more") || strings.Contains(lower, "what about"):
		return "request_info", nil
	}
	return "unrecognized", nil
}
