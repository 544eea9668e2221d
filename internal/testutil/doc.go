// Package testutil provides fixtures and a fake Google OAuth backend for
// sessionauth tests.
package testutil
