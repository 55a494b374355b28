// Package model defines the approval workflow data model: versioned
// templates made of ordered steps, instances pinned to a template version,
// and the append-only history entries that record every transition.
package model
