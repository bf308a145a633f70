// Package component defines the lifecycle contract (Start, Stop, Health) for
// draftkit infrastructure and a Registry that starts components in order and
// stops them in reverse.
package component
