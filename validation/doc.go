// Package validation validates and sanitizes local registration input.
//
// Validation mirrors common web-form rules: usernames are trimmed and must be
// alphanumeric, emails must be well formed and are normalized (lowercased, with
// provider-specific canonicalization for large webmail domains), and passwords
// must be at least eight characters long. Failures are reported as a list of
// per-field errors suitable for returning to the client verbatim.
package validation
