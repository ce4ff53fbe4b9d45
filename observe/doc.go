// Package observe provides observability primitives for cache compute
// functions.
//
// It is a pure instrumentation library: it wraps OpenTelemetry tracing and
// metrics, plus a small JSON structured logger. The cache package accepts a
// Logger and a Middleware; nothing here depends on the cache itself.
package observe
