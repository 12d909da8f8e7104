// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
)

// Method names the credential path that produced an identity.
type Method string

// Authentication methods.
const (
	MethodToken    Method = "token"
	MethodPassword Method = "password"
)

// LoginAttempt is the raw login input. Either Token or Username+Password must
// be present for the attempt to succeed.
type LoginAttempt struct {
	Token    string
	Username string
	Password string
}

// LogValue redacts the credentials so an attempt can be logged as a whole.
func (a LoginAttempt) LogValue() slog.Value {
	attrs := []slog.Attr{slog.String("username", a.Username)}
	if a.Token != "" {
		attrs = append(attrs, slog.String("token_fp", TokenFingerprint(a.Token)))
	}
	if a.Password != "" {
		attrs = append(attrs, slog.String("password", "[redacted]"))
	}
	return slog.GroupValue(attrs...)
}

// Identity is the result of a successful authentication.
type Identity struct {
	Username string
	Method   Method
}

// TokenFingerprint returns a short, non-reversible tag for a token so log
// lines can correlate attempts without recording the token itself.
func TokenFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:4])
}
