// Package engine wires the howa subsystems together and provides the
// application-level API: Submit to accept a request and Status to poll it.
//
// The engine sits above every subsystem package and below the
// application layer, so the root howa package can stay free of imports
// back into task, pipeline and worker.
//
// # Building an Engine
//
//	backend := redis.New(client, redis.WithConfig(cfg))
//
//	eng, err := engine.New(backend, caps,
//	    engine.WithConfig(cfg),
//	    engine.WithLogger(logger),
//	    engine.WithExtension(myExtension),
//	)
//
// # Submitting and Polling
//
//	receipt, err := eng.Submit(ctx, task.Request{Theme: "感謝", Audiences: []string{"若者"}})
//	view, err := eng.Status(ctx, receipt.TaskID.String())
//
// # Options
//
//   - [WithConfig] — queue, worker and pipeline settings
//   - [WithLogger] — structured logger
//   - [WithExtension] — register a lifecycle extension
//   - [WithMiddleware] — add a middleware to the execution chain
//   - [WithTracerProvider] — set the OpenTelemetry tracer provider
//   - [WithMeterProvider] — set the OpenTelemetry meter provider
package engine
