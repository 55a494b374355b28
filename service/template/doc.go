// Package template validates, versions and serves immutable workflow
// template snapshots. Updating a template allocates a new version and never
// mutates prior ones, so in-flight instances pinned to an older version stay
// replayable; retiring blocks new instances without affecting running ones.
package template
