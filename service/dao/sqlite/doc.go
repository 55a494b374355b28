// Package sqlite persists templates, instances and history in SQLite for
// single-node deployments that need durability without an external database.
// Template versions and history rows are insert-only; only the instance
// projection and the per-template metadata are ever updated.
package sqlite
