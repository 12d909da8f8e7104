// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package errutil

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/oops"
)

// LogError logs an error with structured context if it's an oops error.
// For oops errors, it extracts and logs the message, code and context.
// For standard errors, it logs the error string.
func LogError(ctx context.Context, logger *slog.Logger, msg string, err error) {
	if oopsErr, ok := oops.AsOops(err); ok {
		attrs := []slog.Attr{
			slog.String("error", oopsErr.Error()),
		}
		if code := oopsErr.Code(); code != nil {
			attrs = append(attrs, slog.Any("code", code))
		}
		if errCtx := oopsErr.Context(); len(errCtx) > 0 {
			attrs = append(attrs, slog.Any("context", errCtx))
		}
		logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
		return
	}
	logger.LogAttrs(ctx, slog.LevelError, msg, slog.Any("error", err))
}

// Code returns the oops code carried by err as a string, or "" when err is
// not an oops error or has no code.
func Code(err error) string {
	oopsErr, ok := oops.AsOops(err)
	if !ok {
		return ""
	}
	code := oopsErr.Code()
	if code == nil {
		return ""
	}
	return fmt.Sprint(code)
}
