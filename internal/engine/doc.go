// Package engine is the pure check pipeline: match rules against text,
// aggregate the matches into a risk level, build issue records and derive a
// suggested rewrite.
//
// Every function here is deterministic and free of shared mutable state, so
// concurrent checks may call them without coordination.
package engine
