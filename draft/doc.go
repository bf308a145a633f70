// Package draft persists in-progress values ("drafts") to a key-value
// backend.
//
// A Store holds one value in memory and writes it as a record
//
//	{"lastSaved": <epoch ms>, "value": "<serialized>"}
//
// under key+"_draft". Writes follow a Strategy: debounce, throttle, or hybrid
// (throttle when the last save is old enough, debounce otherwise, with a
// max-wait cap). Load hydrates the store once; undecodable records are
// treated as absent. Clear removes the record, SaveNow bypasses the
// scheduler and Close flushes whatever is pending.
//
// Form wraps a Store of field maps for field-level edits, and Maintenance
// reports record sizes and prunes stale drafts.
package draft
