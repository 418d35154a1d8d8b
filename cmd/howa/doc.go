// Command howa runs sermon-generation workers and talks to the task
// store from the shell.
//
//	howa worker                         # run worker loops until SIGINT/SIGTERM
//	howa submit --theme 感謝 --audience 若者
//	howa status <task-id> [--json]
//
// All commands read an optional YAML file given with --config; keys
// absent from the file keep their defaults.
package main
