// ABOUTME: Prefix-grammar fast path for feedback classification
// ABOUTME: Pure string matching, no external calls, case-insensitive

package intent

import (
	"context"
	"strings"
)

// PrefixClassifier resolves the fixed feedback grammar:
//
//	approve
//	reject
//	escalate:<reason>
//	request_info:<topic>
//	revise | revise to <guidance>
//
// Matching is case-insensitive with surrounding whitespace trimmed. Anything
// else yields Unrecognized with the verbatim text retained.
type PrefixClassifier struct{}

// Classify never returns an error; unmatched text maps to Unrecognized.
func (PrefixClassifier) Classify(_ context.Context, raw string) (Intent, error) {
	text := strings.TrimSpace(raw)
	lower := strings.ToLower(text)

	switch {
	case strings.HasPrefix(lower, "approve"):
		return Intent{Kind: KindApprove, RawText: raw}, nil

	case strings.HasPrefix(lower, "reject"):
		return Intent{Kind: KindReject, RawText: raw}, nil

	case strings.HasPrefix(lower, "escalate"):
		return Intent{Kind: KindEscalate, Reason: argument(text, "escalate"), RawText: raw}, nil

	case strings.HasPrefix(lower, "request_info"):
		topic := argument(text, "request_info")
		if topic == "" {
			// A research request with no topic cannot drive a research
			// call; ask the reviewer to clarify instead.
			return Intent{Kind: KindUnrecognized, RawText: raw}, nil
		}
		return Intent{Kind: KindRequestInfo, Topic: topic, RawText: raw}, nil

	case strings.HasPrefix(lower, "revise"):
		guidance := argument(text, "revise")
		if strings.HasPrefix(strings.ToLower(guidance), "to ") {
			guidance = strings.TrimSpace(guidance[len("to "):])
		}
		return Intent{Kind: KindRevise, Guidance: guidance, RawText: raw}, nil
	}

	return Intent{Kind: KindUnrecognized, RawText: raw}, nil
}

// argument returns the text following the prefix, with an optional colon and
// surrounding whitespace stripped. Case of the argument is preserved.
func argument(text, prefix string) string {
	rest := text[len(prefix):]
	rest = strings.TrimPrefix(strings.TrimSpace(rest), ":")
	return strings.TrimSpace(rest)
}
