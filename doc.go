// Package howa provides an asynchronous job engine that turns a sermon
// request (a theme and a list of audiences) into a structured sermon.
//
// Submissions are stored durably and acknowledged immediately. Worker loops
// consume task IDs from a blocking queue and drive each task through a fixed
// five-stage pipeline (plan, lookup-reference, gather-material, draft,
// select), persisting the terminal outcome so clients can poll for it.
//
// # Quick Start
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	backend := redisstore.New(client)
//	eng, err := engine.New(backend, caps, engine.WithConfig(howa.DefaultConfig()))
//	_ = eng.Start(ctx)
//	receipt, err := eng.Submit(ctx, task.Request{Theme: "感謝", Audiences: []string{"若者"}})
//
// # Architecture
//
// The store is the source of truth; the queue only carries wake-up signals.
// External capabilities (planning, reference lookup, drafting, selection)
// are consumed through the narrow interfaces in the capability package.
// Collaborator failures degrade to documented fallbacks; only contract
// violations inside the pipeline fail a task.
package howa
