// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type state int

const (
	unresolved state = iota
	resolving
	resolved
)

// Fetcher lazily resolves the parameters of a single request.
//
// The whole registry is resolved on first access and the outcomes are
// memoized for the lifetime of the Fetcher, so later changes to the
// [Source] are not observed. A Fetcher must not be shared between
// requests or goroutines.
type Fetcher struct {
	reg *Registry
	src Source

	state      state
	outcomes   map[string]Outcome
	conflicts  []*ConflictError
	controller any
}

// NewFetcher initializes a [Fetcher] for one request.
func NewFetcher(reg *Registry, src Source) *Fetcher {
	return &Fetcher{
		reg: reg,
		src: src,
	}
}

// SetController associates the fetcher with the handler it serves.
// It has no effect on resolution.
func (f *Fetcher) SetController(c any) {
	f.controller = c
}

// Controller returns the value given to [Fetcher.SetController].
func (f *Fetcher) Controller() any {
	return f.controller
}

// Resolve resolves every declared parameter, if not already done, and
// checks incompatible parameters. It does not report validation failures,
// those are returned by [Fetcher.Get] and [Fetcher.All].
func (f *Fetcher) Resolve(ctx context.Context) error {
	switch f.state {
	case resolved:
		return nil
	case resolving:
		return ErrResolving
	}

	_, span := otel.Tracer("github.com/z5labs/restkit/param").Start(ctx, "Fetcher.Resolve")
	defer span.End()

	f.state = resolving

	r := &resolver{
		params:   f.reg.params,
		src:      f.src,
		resolved: make(map[string]Outcome, len(f.reg.entries)),
	}
	var violations int
	for _, e := range f.reg.entries {
		o := r.resolve(e)
		if o.Kind == KindViolation {
			violations++
		}
		r.resolved[e.def.Name] = o
	}

	for _, p := range f.reg.pairs {
		if r.resolved[p.a].present() && r.resolved[p.b].present() {
			f.conflicts = append(f.conflicts, &ConflictError{Param: p.a, Other: p.b})
		}
	}

	f.outcomes = r.resolved
	f.state = resolved

	span.SetAttributes(
		attribute.Int("param.count", len(f.reg.entries)),
		attribute.Int("param.violations", violations),
		attribute.Int("param.conflicts", len(f.conflicts)),
	)
	if violations > 0 || len(f.conflicts) > 0 {
		span.SetStatus(codes.Error, "invalid parameters")
	}
	return nil
}

// Outcome returns the memoized outcome of the named parameter.
func (f *Fetcher) Outcome(name string) (Outcome, error) {
	i, ok := f.reg.index[name]
	if !ok {
		return Outcome{}, &UnknownParameterError{Param: name}
	}
	err := f.Resolve(context.Background())
	if err != nil {
		return Outcome{}, err
	}
	o := f.outcomes[f.reg.entries[i].def.Name]
	o.Value = cloneValue(o.Value)
	return o, nil
}

type getOptions struct {
	strict *bool
}

// GetOption configures a single read from a [Fetcher].
type GetOption func(*getOptions)

// WithStrict overrides the strictness of the parameters being read.
//
// Outcomes are memoized, so the override decides whether a recorded
// failure is reported or replaced by the default. It never triggers a new
// resolution.
func WithStrict(strict bool) GetOption {
	return func(o *getOptions) {
		o.strict = &strict
	}
}

func newGetOptions(opts []GetOption) getOptions {
	var o getOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func (o getOptions) strictFor(d Definition) bool {
	if o.strict != nil {
		return *o.strict
	}
	return d.Strict
}

// Get returns the resolved value of the named parameter.
//
// A [*UnknownParameterError] is returned for undeclared names, a
// [*ConflictError] when the parameter is present together with an
// incompatible one and a [*ValidationError] when it failed validation.
func (f *Fetcher) Get(name string, opts ...GetOption) (any, error) {
	i, ok := f.reg.index[name]
	if !ok {
		return nil, &UnknownParameterError{Param: name}
	}
	err := f.Resolve(context.Background())
	if err != nil {
		return nil, err
	}

	for _, c := range f.conflicts {
		if c.involves(name) {
			return nil, c
		}
	}

	o := newGetOptions(opts)
	e := f.reg.entries[i]
	v, failure := f.outcomes[name].value(o.strictFor(e.def))
	if failure != nil {
		return nil, &ValidationError{
			Violations: []Violation{violation(e.def, failure)},
		}
	}
	return v, nil
}

// All returns every resolved value keyed by parameter name.
//
// Every violation is reported in a single [*ValidationError] and every
// conflict as its own [*ConflictError], combined with [errors.Join].
func (f *Fetcher) All(opts ...GetOption) (map[string]any, error) {
	err := f.Resolve(context.Background())
	if err != nil {
		return nil, err
	}

	o := newGetOptions(opts)
	values := make(map[string]any, len(f.reg.entries))
	var violations []Violation
	for _, e := range f.reg.entries {
		v, failure := f.outcomes[e.def.Name].value(o.strictFor(e.def))
		if failure != nil {
			violations = append(violations, violation(e.def, failure))
			continue
		}
		values[e.def.Name] = v
	}

	errs := make([]error, 0, len(f.conflicts)+1)
	for _, c := range f.conflicts {
		errs = append(errs, c)
	}
	if len(violations) > 0 {
		errs = append(errs, &ValidationError{Violations: violations})
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return values, nil
}

func violation(d Definition, f *Failure) Violation {
	msg := fmt.Sprintf("%s parameter %q: %s", d.Kind, d.Name, f.Detail)
	if f.Index >= 0 {
		msg = fmt.Sprintf("%s parameter %q item %d: %s", d.Kind, d.Name, f.Index, f.Detail)
	}
	return Violation{
		Param:   d.Name,
		Kind:    d.Kind,
		Reason:  f.Reason,
		Message: msg,
	}
}

// String returns the named parameter as a string. A nil value yields "".
func (f *Fetcher) String(name string, opts ...GetOption) (string, error) {
	v, err := f.Get(name, opts...)
	if err != nil {
		return "", err
	}
	s, ok := stringify(v)
	if !ok {
		return "", fmt.Errorf("param: %q is a list not a single value", name)
	}
	return s, nil
}

// Strings returns the named parameter as a list of strings. A single
// value yields a one item list and a nil value yields an empty list.
func (f *Fetcher) Strings(name string, opts ...GetOption) ([]string, error) {
	v, err := f.Get(name, opts...)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return []string{}, nil
	}
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	ss := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := stringify(item)
		if !ok {
			return nil, fmt.Errorf("param: %q contains a nested list", name)
		}
		ss = append(ss, s)
	}
	return ss, nil
}

// File returns the named parameter as an uploaded file. The returned file
// is nil when the resolved value is not a file, e.g. a string default.
func (f *Fetcher) File(name string, opts ...GetOption) (File, error) {
	v, err := f.Get(name, opts...)
	if err != nil {
		return nil, err
	}
	file, _ := v.(File)
	return file, nil
}

// Files returns the uploaded files held by the named parameter. Items
// which are not files, such as defaults, are skipped.
func (f *Fetcher) Files(name string, opts ...GetOption) ([]File, error) {
	v, err := f.Get(name, opts...)
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	files := make([]File, 0, len(items))
	for _, item := range items {
		if file, ok := item.(File); ok {
			files = append(files, file)
		}
	}
	return files, nil
}
