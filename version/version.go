// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package version resolves the API version requested by a client.
package version

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Default names used by the resolvers.
const (
	DefaultQueryParameter = "version"
	DefaultHeader         = "X-Accept-Version"
	DefaultMediaTypeRegex = `(v|version)=(?P<version>[0-9\.]+)`
)

// Resolver extracts a version from a request.
type Resolver interface {
	Resolve(*http.Request) (string, bool)
}

// ResolverFunc is a func implementation of the [Resolver] interface.
type ResolverFunc func(*http.Request) (string, bool)

// Resolve implements the [Resolver] interface.
func (f ResolverFunc) Resolve(r *http.Request) (string, bool) {
	return f(r)
}

// QueryParameter resolves the version from the named query parameter.
func QueryParameter(name string) Resolver {
	if name == "" {
		name = DefaultQueryParameter
	}
	return ResolverFunc(func(r *http.Request) (string, bool) {
		v := r.URL.Query().Get(name)
		return v, v != ""
	})
}

// Header resolves the version from the named request header.
func Header(name string) Resolver {
	if name == "" {
		name = DefaultHeader
	}
	return ResolverFunc(func(r *http.Request) (string, bool) {
		v := strings.TrimSpace(r.Header.Get(name))
		return v, v != ""
	})
}

// ErrMissingVersionGroup is returned by [MediaType] when the expression has
// no group named "version".
var ErrMissingVersionGroup = errors.New("version: media type regex must have a named group \"version\"")

// MediaType resolves the version from the Accept header, e.g.
// "application/json;version=2.1". The expression must capture the version
// in a group named "version".
func MediaType(expr string) (Resolver, error) {
	if expr == "" {
		expr = DefaultMediaTypeRegex
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("version: invalid media type regex: %w", err)
	}
	group := re.SubexpIndex("version")
	if group < 0 {
		return nil, ErrMissingVersionGroup
	}

	return ResolverFunc(func(r *http.Request) (string, bool) {
		for _, accept := range r.Header.Values("Accept") {
			for _, mediaRange := range strings.Split(accept, ",") {
				m := re.FindStringSubmatch(mediaRange)
				if m != nil && m[group] != "" {
					return m[group], true
				}
			}
		}
		return "", false
	}), nil
}

// Chain returns the first version resolved by rs, in order.
func Chain(rs ...Resolver) Resolver {
	return ResolverFunc(func(r *http.Request) (string, bool) {
		for _, res := range rs {
			v, ok := res.Resolve(r)
			if ok {
				return v, true
			}
		}
		return "", false
	})
}

// Or falls back to def when r cannot resolve a version.
func Or(r Resolver, def string) Resolver {
	return ResolverFunc(func(req *http.Request) (string, bool) {
		v, ok := r.Resolve(req)
		if ok {
			return v, true
		}
		return def, def != ""
	})
}
