// Package telemetry sets up OpenTelemetry tracing and metrics for figclass.
//
// Spans and metrics are exported over OTLP/HTTP when enabled. When disabled
// or when exporter setup fails, Tracer and Meter return the global no-op
// implementations and classification continues unaffected.
//
//	tel, err := telemetry.New(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer tel.Shutdown(ctx)
//
//	ctx, span := tel.Tracer("figclass/builder").Start(ctx, "builder.Build")
//	defer span.End()
//
// Tests use NewTestTelemetry, which records spans in memory.
package telemetry
