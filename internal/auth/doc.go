// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

// Package auth decides whether a login attempt is authenticated and which
// hub identity it maps to.
//
// # Credential validation
//
// Validator.Authenticate tries a signed login token first and falls back to
// a username/password check against the backend store. Every outcome is a
// single Identity or a coded failure; ReasonOf recovers the failure reason
// for logging and tests.
//
// # Provisioning
//
// Provisioner.ResolveOrCreate turns a token-authenticated username into a
// registry User, creating a minimal record on first login. Duplicate
// creation races resolve to the record that won.
//
// # Sessions
//
// SessionAuthority issues the hub's own session credential once an identity
// is established. Session tokens are random; only their SHA-256 hash is
// persisted.
package auth
