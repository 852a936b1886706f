// Package source contains the adapters translating source-native
// payloads into raw, untyped records.
//
// Three adapters cover the supported source types:
//
//   - APIPullAdapter: authenticated HTTP polling with pagination.
//     Transient failures (network errors, 5xx) surface as
//     RetryableSourceError so the executor can back off and retry;
//     4xx responses are permanent.
//   - File parsing: CSV (header row defines field names) and JSON
//     (array of objects). Malformed individual rows become
//     record-level errors; a single bad row never aborts the file.
//   - Webhook: HMAC-SHA256 signature verification against the
//     merchant's secret before the body is ever parsed, producing
//     exactly one record or a delete marker per call.
//
// All adapters emit value.Value trees; nothing downstream of this
// package sees source-native shapes.
package source
