// Package logging provides structured logging for figclass.
//
// Logger wraps zap with context-aware methods. Every entry logged through a
// context picks up the OpenTelemetry trace and span ids, the classification
// run id, and the HTTP request id when present:
//
//	ctx = logging.WithRunID(ctx, runID)
//	logger.Info(ctx, "build finished", zap.Int("nodes", n))
//
// Logs go to stderr by default so that classify can stream the schema on
// stdout. An OpenTelemetry log provider can be attached as a second sink.
//
// Below error level, entries are sampled per level. Errors are never
// sampled. Fields whose names look like credentials are redacted by the
// encoder, and config.Secret values should be logged with Secret.
//
// TestLogger records entries in memory for assertions in tests.
package logging
