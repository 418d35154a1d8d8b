// Package capability defines the external collaborators the pipeline
// depends on: a planner, a scripture reference finder, a current-topic
// gatherer, a drafter and a selector.
//
// Implementations wrap prompt building, generative-model calls and managed
// search. The pipeline treats them as opaque: any error is handled by the
// stage fallback, never by the collaborator itself. Package static
// provides deterministic implementations for tests and offline runs.
package capability
