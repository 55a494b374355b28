// Package audit keeps the append-only history of every instance transition.
// History is the source of truth: instance status and current step are
// projections that the engine can rebuild by replaying entries in order.
package audit
