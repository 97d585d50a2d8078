// ABOUTME: Intent types and the Classifier contract for human feedback
// ABOUTME: Maps free-text reviewer messages to structured workflow intents

package intent

import "context"

// Kind enumerates the classified meanings of a feedback message.
type Kind string

const (
	KindApprove      Kind = "approve"
	KindReject       Kind = "reject"
	KindRequestInfo  Kind = "request_info"
	KindRevise       Kind = "revise"
	KindEscalate     Kind = "escalate"
	KindUnrecognized Kind = "unrecognized"
)

// Intent is the classified meaning of a human feedback message plus any
// parameters extracted from it.
type Intent struct {
	Kind     Kind
	Topic    string // RequestInfo: what to research
	Guidance string // Revise: how to rework the proposal
	Reason   string // Escalate: why it needs a human above the reviewer
	RawText  string // Unrecognized: the verbatim input
}

// Classifier maps raw reviewer text to an Intent. Implementations must be
// side-effect free; an Unrecognized result is a soft signal, not an error.
type Classifier interface {
	Classify(ctx context.Context, raw string) (Intent, error)
}
