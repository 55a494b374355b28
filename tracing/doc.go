// Package tracing integrates observability back-ends with the workflow
// engine to provide distributed tracing of instance operations. The
// instrumentation lives in its own package so applications that do not need
// tracing keep a no-op provider.
package tracing
