// Package password derives salted password hashes for local registration.
//
// The hasher uses PBKDF2 with SHA-512, 1000 iterations and a 64-byte derived key,
// encoded as lowercase hex. The salt is a single process-wide secret, so two users
// choosing the same password produce the same hash.
package password
