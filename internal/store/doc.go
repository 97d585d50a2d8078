// Package store provides the session registry for campaign-gateway.
//
// # Architecture
//
// The Store interface covers the four registry operations the workflow
// engine needs:
//
//   - Create: register a new session under a unique id
//   - Get: snapshot a session by id
//   - Update: atomic read-modify-write of one session
//   - List: creation-ordered summaries of every session
//
// Two implementations satisfy it:
//
//   - MemoryStore: mutex-guarded map, the default backend
//   - SQLiteStore: modernc.org/sqlite, ":memory:" by default
//
// # Data Models
//
//   - Session: one campaign's review lifecycle (spec, proposal, research,
//     history, iteration count)
//   - Event: immutable audit record; History is append-only
//   - CampaignSpec: the immutable creation input
//   - Summary: the listing view
//
// # Consistency
//
// Update serializes concurrent writers on the same id and commits only if
// the mutation callback succeeds. Get and List hand out snapshots, so a
// reader never observes a half-applied write.
//
// # Error Handling
//
// Sentinel errors shared across the system:
//
//   - ErrNotFound: unknown session id
//   - ErrTerminal: mutation on an approved/rejected/escalated session
//   - ErrInvalidSpec: missing required spec field
package store
