// Package watch re-runs property filtering whenever its input, schema or
// config file changes. Rapid events are debounced, and each run reports
// which property paths appeared in or disappeared from the output.
package watch
