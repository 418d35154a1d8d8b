// Package pipeline runs a sermon request through a fixed, ordered table of
// stages: plan, lookup-reference, gather-material, draft and select.
//
// Stages communicate only through State, an append-only record of typed
// keys. Each stage declares the keys it requires and the keys it
// produces; the Orchestrator checks both before merging the stage's
// Delta. A missing input, a missing output, or an attempt to overwrite a
// key already present fails the run with a contract-violation error.
//
// Collaborator failures are not fatal. Each single-mode stage has a
// fallback that yields a usable value, and the draft stage fans out one
// call per material item, recording a placeholder for every call that
// errors or panics. Degraded stages are reported to the StageEmitter.
package pipeline
