// Package resilience retries transient failures with exponential backoff and
// jitter. Backends and the upload pipeline use it for writes that report a
// retryable *errors.AppError.
package resilience
