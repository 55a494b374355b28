// Package engine implements the workflow instance state machine. It creates
// instances pinned to an immutable template version, serializes decision
// processing per instance, advances automatically through notification and
// condition steps, and derives instance state deterministically so that the
// append-only history always replays to the stored projection.
package engine
