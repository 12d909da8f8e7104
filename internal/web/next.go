// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 LabHub Contributors

package web

import (
	"net/url"
	"path"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// NextPolicy decides where a successful login lands. A requested next path
// is honoured only when it is local and matches an allowed pattern.
type NextPolicy struct {
	patterns []glob.Glob
	fallback string
}

// NewNextPolicy compiles patterns with '/' as the separator, so "*" stays
// within one path segment and "**" spans segments.
func NewNextPolicy(patterns []string, fallback string) (*NextPolicy, error) {
	if !strings.HasPrefix(fallback, "/") {
		return nil, oops.Code("WEB_INVALID_CONFIG").With("fallback", fallback).Errorf("fallback must be an absolute path")
	}
	p := &NextPolicy{fallback: fallback}
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, oops.Code("WEB_INVALID_CONFIG").With("pattern", pattern).Wrap(err)
		}
		p.patterns = append(p.patterns, g)
	}
	return p, nil
}

// Resolve returns next when it is allowed, otherwise the fallback.
func (p *NextPolicy) Resolve(next string) string {
	if target, ok := p.allowed(next); ok {
		return target
	}
	return p.fallback
}

func (p *NextPolicy) allowed(next string) (string, bool) {
	// "//host" and "/\host" are treated as network paths by browsers.
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n\t") {
		return "", false
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return "", false
	}
	// Dot segments could climb out of an allowed prefix.
	clean := path.Clean(u.Path)
	if strings.HasSuffix(u.Path, "/") && clean != "/" {
		clean += "/"
	}
	if clean != u.Path {
		return "", false
	}
	for _, g := range p.patterns {
		if g.Match(u.Path) {
			return u.RequestURI(), true
		}
	}
	return "", false
}
