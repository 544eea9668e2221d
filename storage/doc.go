// Package storage defines the interface for persisting server-side session records.
//
// Two backends are provided:
//
//   - memory: a process-local map with a background TTL sweeper, suitable for
//     development and single-instance deployments.
//   - redis: go-redis backed records with server-side key expiry and optional
//     AES-256-GCM encryption at rest, for deployments with more than one replica.
//
// Stores only hold what a session needs (ID, user profile, timestamps); they never
// hold OAuth tokens. A record that has expired is reported as ErrSessionNotFound.
package storage
