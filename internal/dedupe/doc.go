// Package dedupe provides idempotency-key deduplication using a time-based
// cache, so a retried feedback submission is not applied twice.
package dedupe
