// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

type entry struct {
	def Definition
	req requirement
}

type pair struct {
	a, b string
}

// Registry is a validated, ordered set of parameter definitions.
// It is immutable and safe for concurrent use.
type Registry struct {
	entries []entry
	index   map[string]int
	pairs   []pair
	params  Parameters
}

type registryOptions struct {
	params Parameters
}

// RegistryOption configures a [Registry].
type RegistryOption func(*registryOptions)

// WithParameters provides the process-wide parameter bag used to expand
// %name% placeholders in defaults and requirement patterns.
func WithParameters(p Parameters) RegistryOption {
	return func(ro *registryOptions) {
		ro.params = maps.Clone(p)
	}
}

// NewRegistry validates defs and compiles them into a [Registry].
// Every problem found is reported as a [*ConfigurationError] and they are
// combined with [errors.Join].
func NewRegistry(defs []Definition, opts ...RegistryOption) (*Registry, error) {
	ro := &registryOptions{}
	for _, opt := range opts {
		opt(ro)
	}

	reg := &Registry{
		entries: make([]entry, 0, len(defs)),
		index:   make(map[string]int, len(defs)),
		params:  ro.params,
	}

	var errs []error
	invalid := func(name, format string, args ...any) {
		errs = append(errs, &ConfigurationError{
			Param:  name,
			Reason: fmt.Sprintf(format, args...),
		})
	}

	for _, d := range defs {
		if d.Name == "" {
			invalid(d.Name, "name must not be empty")
			continue
		}
		if _, exists := reg.index[d.Name]; exists {
			invalid(d.Name, "name is declared more than once")
			continue
		}

		switch d.Kind {
		case Query, RequestBody, FileUpload:
		default:
			invalid(d.Name, "unknown kind %d", int(d.Kind))
		}
		if d.Image && d.Kind != FileUpload {
			invalid(d.Name, "image may only be set on file parameters")
		}
		if d.Kind == FileUpload && d.hasRequirement() {
			invalid(d.Name, "file parameters do not support requirements")
		}

		req, err := compileRequirement(d, reg.params)
		if err != nil {
			invalid(d.Name, "%s", err)
		}

		reg.index[d.Name] = len(reg.entries)
		reg.entries = append(reg.entries, entry{def: d.clone(), req: req})
	}

	for i, e := range reg.entries {
		for _, other := range e.def.Incompatibles {
			j, ok := reg.index[other]
			switch {
			case other == e.def.Name:
				invalid(e.def.Name, "parameter cannot be incompatible with itself")
			case !ok:
				invalid(e.def.Name, "incompatible parameter %q is not declared", other)
			default:
				reg.addPair(i, j)
			}
		}

		s, ok := e.def.Default.(string)
		if !ok {
			continue
		}
		for _, name := range placeholders(s) {
			j, declared := reg.index[name]
			if declared && j >= i {
				invalid(e.def.Name, "default references %q which is not resolved yet", name)
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return reg, nil
}

func (r *Registry) addPair(i, j int) {
	if i > j {
		i, j = j, i
	}
	p := pair{a: r.entries[i].def.Name, b: r.entries[j].def.Name}
	if slices.Contains(r.pairs, p) {
		return
	}
	r.pairs = append(r.pairs, p)
}

// Len returns the number of declared parameters.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Names returns the parameter names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.def.Name
	}
	return names
}

// Definition returns a copy of the named definition.
func (r *Registry) Definition(name string) (Definition, bool) {
	i, ok := r.index[name]
	if !ok {
		return Definition{}, false
	}
	return r.entries[i].def.clone(), true
}

// Definitions returns copies of every definition in declaration order.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, len(r.entries))
	for i, e := range r.entries {
		defs[i] = e.def.clone()
	}
	return defs
}

// Pattern returns the requirement pattern of the named parameter with its
// placeholders expanded.
func (r *Registry) Pattern(name string) (string, bool) {
	i, ok := r.index[name]
	if !ok {
		return "", false
	}
	req, ok := r.entries[i].req.(patternRequirement)
	if !ok {
		return "", false
	}
	return req.expr, true
}
