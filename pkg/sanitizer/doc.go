// Package sanitizer normalizes free-text input before validation and storage.
//
// All functions are idempotent and never fail: invalid input collapses to an
// empty string or an empty slice, leaving rejection to the validators.
//
// Normalization includes:
//   - Text: collapse whitespace, trim leading/trailing spaces
//   - Identifiers: trimmed, internal whitespace removed
//   - URLs: enforce HTTPS, lowercase the host, keep path and query
//   - Slices: remove duplicates and empty values after normalization
package sanitizer
