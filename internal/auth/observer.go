// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package auth

// Observer receives authentication outcomes, typically to record metrics.
type Observer interface {
	// AttemptFinished is called once per credential path that was tried.
	AttemptFinished(method Method, reason Reason)

	// UserProvisioned is called when a new registry user was created.
	UserProvisioned()
}

// LoginOutcome is the end result of one token-login request.
type LoginOutcome string

// Token login outcomes.
const (
	LoginOK       LoginOutcome = "ok"
	LoginRejected LoginOutcome = "rejected"
	LoginError    LoginOutcome = "error"
)

type nopObserver struct{}

func (nopObserver) AttemptFinished(Method, Reason) {}
func (nopObserver) UserProvisioned()               {}
