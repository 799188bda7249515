// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/z5labs/restkit/concurrent"
)

// compiled patterns are shared by every registry in the process
var patterns = concurrent.NewCache[string, *regexp.Regexp]()

type requirement interface {
	match(s string) bool
	String() string
}

type patternRequirement struct {
	expr string
	re   *regexp.Regexp
}

func compilePattern(expr string) (patternRequirement, error) {
	re, err := patterns.GetOr(expr, func() (*regexp.Regexp, error) {
		return regexp.Compile(`(?s)^(?:` + expr + `)$`)
	})
	if err != nil {
		return patternRequirement{}, err
	}
	return patternRequirement{expr: expr, re: re}, nil
}

func (r patternRequirement) match(s string) bool {
	return r.re.MatchString(s)
}

func (r patternRequirement) String() string {
	return r.expr
}

type candidateRequirement []Candidate

func (r candidateRequirement) match(s string) bool {
	return slices.ContainsFunc(r, func(c Candidate) bool {
		return c.Value == s
	})
}

func (r candidateRequirement) values() []string {
	vals := make([]string, len(r))
	for i, c := range r {
		vals[i] = c.Value
	}
	return vals
}

func (r candidateRequirement) String() string {
	return "one of [" + strings.Join(r.values(), ", ") + "]"
}

func compileRequirement(d Definition, bag Parameters) (requirement, error) {
	switch {
	case d.Pattern != "" && len(d.Candidates) > 0:
		return nil, fmt.Errorf("pattern and candidates are mutually exclusive")
	case len(d.Candidates) > 0:
		return candidateRequirement(slices.Clone(d.Candidates)), nil
	case d.Pattern != "":
		expr := Interpolate(d.Pattern, bag.Lookup)
		req, err := compilePattern(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid requirement %q: %w", expr, err)
		}
		return req, nil
	default:
		return nil, nil
	}
}
