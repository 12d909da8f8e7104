// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package auth

import (
	"errors"
	"fmt"

	"github.com/samber/oops"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when a create collides with an existing record.
var ErrAlreadyExists = errors.New("already exists")

// Reason classifies a failed authentication attempt. Its value is the oops
// error code carried by the failure.
type Reason string

// Failure reasons.
const (
	ReasonNone               Reason = ""
	ReasonMissingCredentials Reason = "AUTH_MISSING_CREDENTIALS"
	ReasonUnknownUser        Reason = "AUTH_UNKNOWN_USER"
	ReasonAccountDisabled    Reason = "AUTH_ACCOUNT_DISABLED"
	ReasonBadPassword        Reason = "AUTH_BAD_PASSWORD"
	ReasonTokenInvalid       Reason = "AUTH_TOKEN_INVALID"
	ReasonBackendError       Reason = "AUTH_BACKEND_ERROR"

	// ReasonInvalidUsername rejects a verified token whose username the
	// registry cannot hold.
	ReasonInvalidUsername Reason = "AUTH_INVALID_USERNAME"
)

// Label returns the short form used in log lines and metric labels.
func (r Reason) Label() string {
	switch r {
	case ReasonNone:
		return "ok"
	case ReasonMissingCredentials:
		return "missing_credentials"
	case ReasonUnknownUser:
		return "unknown_user"
	case ReasonAccountDisabled:
		return "account_disabled"
	case ReasonBadPassword:
		return "bad_password"
	case ReasonTokenInvalid:
		return "token_invalid"
	case ReasonInvalidUsername:
		return "invalid_username"
	default:
		return "backend_error"
	}
}

// ReasonOf returns the failure reason carried by err. A nil error yields
// ReasonNone; errors that carry no known reason are treated as backend errors.
func ReasonOf(err error) Reason {
	if err == nil {
		return ReasonNone
	}
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ReasonBackendError
	}
	switch r := Reason(fmt.Sprint(oopsErr.Code())); r {
	case ReasonMissingCredentials, ReasonUnknownUser, ReasonAccountDisabled,
		ReasonBadPassword, ReasonTokenInvalid, ReasonBackendError, ReasonInvalidUsername:
		return r
	default:
		return ReasonBackendError
	}
}

// failure builds the error returned for a rejected attempt. The cause of a
// backend failure is logged by the caller and never wrapped, so the reason
// code stays the outermost and only code on the error.
func failure(reason Reason, method Method, username, msg string) error {
	return oops.Code(string(reason)).
		With("method", string(method)).
		With("username", username).
		Errorf("%s", msg)
}
