// Package task defines the task entity, its status state machine, the
// request and result shapes, and the persistence contracts (Store and
// Queue) that backends implement.
package task
