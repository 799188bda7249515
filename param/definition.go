// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

import "slices"

// Kind identifies which part of a request a parameter is read from.
type Kind int

const (
	// Query parameters are read from the URL query string.
	Query Kind = iota + 1

	// RequestBody parameters are read from the decoded request body.
	RequestBody

	// FileUpload parameters are read from multipart file uploads.
	FileUpload
)

// String implements the [fmt.Stringer] interface.
func (k Kind) String() string {
	switch k {
	case Query:
		return "query"
	case RequestBody:
		return "body"
	case FileUpload:
		return "file"
	default:
		return "unknown"
	}
}

// Candidate is one labeled value accepted by an [IdenticalTo] requirement.
type Candidate struct {
	Label string
	Value string
}

// Choice is shorthand for a [Candidate].
func Choice(label, value string) Candidate {
	return Candidate{Label: label, Value: value}
}

// Definition declares one expected request parameter.
//
// Definitions are usually created with [QueryParam], [RequestParam] or
// [FileParam] and are validated when compiled into a [Registry].
type Definition struct {
	// Name identifies the parameter and must be unique within a registry.
	Name string

	// Key is the request key the value is read from. Defaults to Name.
	Key string

	Kind Kind

	// Default is used when the parameter is absent or, for lenient
	// parameters, invalid. String defaults may contain %name% placeholders.
	Default any

	// Pattern is a regular expression the whole value must match.
	// It may contain %name% placeholders from the [Parameters] bag.
	Pattern string

	// Candidates restricts the value to exactly one of the listed values.
	Candidates []Candidate

	// Nullable makes an absent parameter resolve to nil instead of its default.
	Nullable bool

	// Strict turns requirement failures into violations instead of
	// falling back to Default.
	Strict bool

	// Map expects a list of values instead of a single one.
	Map bool

	// Image requires uploaded files to be images. FileUpload only.
	Image bool

	// Incompatibles names parameters which must not be present together
	// with this one.
	Incompatibles []string

	// Description documents the parameter, e.g. in OpenAPI output.
	Description string
}

func (d Definition) key() string {
	if d.Key != "" {
		return d.Key
	}
	return d.Name
}

func (d Definition) hasRequirement() bool {
	return d.Pattern != "" || len(d.Candidates) > 0
}

func (d Definition) clone() Definition {
	d.Candidates = slices.Clone(d.Candidates)
	d.Incompatibles = slices.Clone(d.Incompatibles)
	return d
}

// Option configures a [Definition].
type Option func(*Definition)

func define(kind Kind, name string, strict bool, opts []Option) Definition {
	d := Definition{
		Name:   name,
		Kind:   kind,
		Strict: strict,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// QueryParam declares a query string parameter. Query parameters are
// lenient unless [Strict] is given.
func QueryParam(name string, opts ...Option) Definition {
	return define(Query, name, false, opts)
}

// RequestParam declares a request body parameter. Body parameters are
// strict unless [Strict] is given.
func RequestParam(name string, opts ...Option) Definition {
	return define(RequestBody, name, true, opts)
}

// FileParam declares an uploaded file parameter. File parameters are
// strict unless [Strict] is given.
func FileParam(name string, opts ...Option) Definition {
	return define(FileUpload, name, true, opts)
}

// Key reads the parameter from a request key other than its name.
func Key(key string) Option {
	return func(d *Definition) {
		d.Key = key
	}
}

// Default sets the value used when the parameter is absent or invalid.
func Default(v any) Option {
	return func(d *Definition) {
		d.Default = v
	}
}

// Requirements sets a regular expression the whole value must match.
//
// Example:
//
//	param.QueryParam("page", param.Requirements(`\d+`))
func Requirements(pattern string) Option {
	return func(d *Definition) {
		d.Pattern = pattern
	}
}

// IdenticalTo requires the value to equal one of the candidates.
//
// Example:
//
//	param.RequestParam("raw", param.IdenticalTo(param.Choice("foo", "raw"), param.Choice("bar", "foo")))
func IdenticalTo(candidates ...Candidate) Option {
	return func(d *Definition) {
		d.Candidates = append(d.Candidates, candidates...)
	}
}

// Nullable lets an absent parameter resolve to nil.
func Nullable() Option {
	return func(d *Definition) {
		d.Nullable = true
	}
}

// Strict controls whether requirement failures are reported or replaced
// by the default.
func Strict(strict bool) Option {
	return func(d *Definition) {
		d.Strict = strict
	}
}

// Map expects the parameter to hold a list of values.
func Map() Option {
	return func(d *Definition) {
		d.Map = true
	}
}

// Image requires uploaded files to be images.
func Image() Option {
	return func(d *Definition) {
		d.Image = true
	}
}

// IncompatibleWith forbids the parameter from being present together with
// any of the named parameters.
func IncompatibleWith(names ...string) Option {
	return func(d *Definition) {
		d.Incompatibles = append(d.Incompatibles, names...)
	}
}

// Description documents the parameter.
func Description(s string) Option {
	return func(d *Definition) {
		d.Description = s
	}
}
