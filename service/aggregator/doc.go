// Package aggregator resolves the outcome of an approval step from the
// responses recorded so far. Resolution is a pure function of the step's
// policy, its pinned role assignments and the ordered response list, which
// keeps history replay deterministic.
package aggregator
