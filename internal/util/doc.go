// Package util provides small helpers shared across sessionauth packages.
//
// Key utilities:
//   - SafeTruncate: truncates identifiers before they are logged
//   - IsLoopbackHostname: detects local redirect URIs during config validation
package util
