// Package errs defines the error taxonomy shared across the catalog
// sync pipeline.
//
// The taxonomy separates errors by who must act on them:
//
//   - ValidationError: bad configure input, the caller must fix it.
//   - NotFoundError: the merchant was never configured.
//   - ErrSignatureInvalid: untrusted webhook payload, rejected outright.
//   - RetryableSourceError: transient source failure, retried with backoff.
//   - RecordError: one record failed mapping or apply; collected, never
//     aborts the run.
//   - ErrConflict: a run is already in progress for the merchant.
//   - ErrRunTimeout: the run exceeded its maximum duration.
//
// HTTP status mapping lives with the feature handler, not here.
package errs
