// Package state keeps per-user conversation sessions in memory.
// It is domain-agnostic: callers choose the session type.
package state
