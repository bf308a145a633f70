// Package draftapi exposes draft records over HTTP so browser clients can
// sync their drafts to a server-side backend.
//
//	GET    /v1/drafts              list draft keys
//	GET    /v1/drafts/:key         fetch a record
//	PUT    /v1/drafts/:key         write {value, expectedLastSaved?}
//	DELETE /v1/drafts/:key         remove a record
//	GET    /v1/drafts/:key/stats   stored size and timestamp
//	POST   /v1/drafts/cleanup      remove drafts older than {maxAge}
//
// Keys get the configured draft suffix appended. When namespacing is on,
// every key is scoped to the authenticated subject.
package draftapi
