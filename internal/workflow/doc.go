// Package workflow implements the human-in-the-loop review state machine.
//
// # States
//
// A session moves through:
//
//	initializing -> pending_review -> {approved | rejected | escalated}
//
// with two transient states, requesting_info and revising, that are
// published mid-turn for pollers and collapse back to pending_review once
// the generation call in the same turn completes.
//
// # Transitions
//
// Feedback is classified into an intent and applied against the current
// state. Terminal states accept nothing further (store.ErrTerminal).
// Unrecognized feedback never moves the machine; the caller is asked to
// clarify and only a noise record of the raw text is kept.
//
// # Concurrency
//
// Feedback turns on the same session id serialize on a per-session mutex;
// turns on different sessions never contend. Generation calls block only
// the calling session's turn. Once a turn has started its gateway call it
// runs to commit even if the caller disconnects.
//
// # Failure
//
// Sessions are created only after the initial proposal is generated, as a
// single commit: a failed first generation leaves nothing behind and the
// caller simply starts again. A failed generation during a feedback turn
// leaves the session in pending_review with a generation_failed event
// recorded; the caller may resubmit the same feedback to retry.
package workflow
