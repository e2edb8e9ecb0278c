// Package registry holds the immutable catalog of tools the agent may
// propose against business records.
//
// Invariants:
// - Tool names are unique.
// - A tool with external impact always requires approval.
// - Unknown names report requires-approval and external-impact as true.
//
// The catalog is one declarative table loaded at process start; nothing in
// the registry mutates after construction.
package registry
