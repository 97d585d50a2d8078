// ABOUTME: Classifier chain combining the prefix fast path with a model fallback
// ABOUTME: The state machine never learns which strategy resolved the intent

package intent

import (
	"context"
	"log/slog"
	"strings"
)

// Labeler is the slice of the generation capability the model fallback
// needs: label a free-text message with one of the known intent kinds.
type Labeler interface {
	Label(ctx context.Context, text string) (string, error)
}

// Chain classifies with the prefix grammar first and, when that yields
// Unrecognized, asks the model to label the text. A fallback failure is
// degraded to Unrecognized rather than failing the feedback turn.
type Chain struct {
	prefix   PrefixClassifier
	fallback Labeler
	logger   *slog.Logger
}

// NewChain creates a classifier chain. fallback may be nil, in which case
// only the prefix grammar applies.
func NewChain(fallback Labeler, logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{
		fallback: fallback,
		logger:   logger.With("component", "classifier"),
	}
}

// Classify resolves raw text to an Intent.
func (c *Chain) Classify(ctx context.Context, raw string) (Intent, error) {
	resolved, _ := c.prefix.Classify(ctx, raw)
	if resolved.Kind != KindUnrecognized || c.fallback == nil {
		return resolved, nil
	}

	label, err := c.fallback.Label(ctx, raw)
	if err != nil {
		c.logger.Warn("fallback classification failed", "error", err)
		return Intent{Kind: KindUnrecognized, RawText: raw}, nil
	}

	return fromLabel(label, raw), nil
}

// fromLabel maps a model-produced label to an Intent. The whole message
// becomes the parameter, since the model saw no structured argument.
func fromLabel(label, raw string) Intent {
	text := strings.TrimSpace(raw)
	switch Kind(strings.ToLower(strings.TrimSpace(label))) {
	case KindApprove:
		return Intent{Kind: KindApprove, RawText: raw}
	case KindReject:
		return Intent{Kind: KindReject, RawText: raw}
	case KindRequestInfo:
		return Intent{Kind: KindRequestInfo, Topic: text, RawText: raw}
	case KindRevise:
		return Intent{Kind: KindRevise, Guidance: text, RawText: raw}
	case KindEscalate:
		return Intent{Kind: KindEscalate, Reason: text, RawText: raw}
	}
	return Intent{Kind: KindUnrecognized, RawText: raw}
}
