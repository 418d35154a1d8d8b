// Package store groups the task.Backend implementations: Redis for shared,
// durable deployments and memory for tests and single-process use.
package store
