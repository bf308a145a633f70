// Package storage provides object storage abstractions with pluggable backends.
//
// Backends register themselves with RegisterFactory from an init function:
//
//   - storage/local: local filesystem storage
//   - storage/s3: Amazon S3 and S3-compatible storage
//
// KVStore keeps one draft record per object and implements kv.Store, so an
// object store can back draft persistence. The upload package writes user
// files through the same Storage interface.
//
//	storage:
//	  enabled: true
//	  provider: "s3"
//	  draft_prefix: "drafts/"
//	  s3:
//	    bucket: "my-bucket"
//	    region: "us-east-1"
package storage
