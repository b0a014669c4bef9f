/*
Package observability provides tools for monitoring the rollcall engine.

It builds domain.LifecycleHooks that log conversation transitions and commits
with slog and record them as Prometheus metrics on a caller-provided registry.
*/
package observability
