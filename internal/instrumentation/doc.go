// Package instrumentation provides OpenTelemetry metrics for the
// calchat server, exported in Prometheus format.
//
// Metrics cover the two hot paths: agent turns (one user message to
// one final answer) and action executions (one tool call against the
// booking adapter). All recorder methods are nil-safe so callers can
// run without instrumentation in tests.
package instrumentation
