// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"path"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/ptr"
)

// PathElement represents a component of a URL path.
// It can be either a static path segment or a dynamic path parameter.
type PathElement interface {
	pathElement() string
}

// PathSegment is a static component of a URL path.
type PathSegment string

func (s PathSegment) pathElement() string {
	return string(s)
}

type pathParam struct {
	name string
}

// PathParam creates a dynamic path parameter element.
func PathParam(name string) PathElement {
	return pathParam{name: name}
}

func (p pathParam) pathElement() string {
	return "{" + p.name + "}"
}

func (p pathParam) spec() openapi3.ParameterOrRef {
	return openapi3.ParameterOrRef{
		Parameter: &openapi3.Parameter{
			Name:     p.name,
			In:       openapi3.ParameterInPath,
			Required: ptr.Ref(true),
			Schema: &openapi3.SchemaOrRef{
				Schema: &openapi3.Schema{
					Type: ptr.Ref(openapi3.SchemaTypeString),
				},
			},
		},
	}
}

// Path represents a URL path composed of static segments and dynamic parameters.
// Paths are built using [BasePath] and extended with [Path.Segment] and [Path.Param].
type Path []PathElement

// BasePath creates a new path starting with the given segment.
//
// Example:
//
//	path := rest.BasePath("/api/v1")
//	// Results in: /api/v1
func BasePath(s string) Path {
	return []PathElement{PathSegment(s)}
}

// Segment appends a static path segment to the path.
//
// Example:
//
//	path := rest.BasePath("/api").Segment("users").Segment("profile")
//	// Results in: /api/users/profile
func (p Path) Segment(s string) Path {
	return append(p, PathSegment(s))
}

// Param appends a dynamic path parameter to the path.
// The parameter value can be read with [PathParamValue].
//
// Example:
//
//	path := rest.BasePath("/users").Param("userId").Segment("posts").Param("postId")
//	// Results in: /users/{userId}/posts/{postId}
func (p Path) Param(name string) Path {
	return append(p, PathParam(name))
}

// String converts the path to its string representation.
// Static segments are joined with slashes, and parameters are formatted as {name}.
func (p Path) String() string {
	ss := make([]string, len(p))
	for i, el := range p {
		ss[i] = el.pathElement()
	}
	return path.Join(ss...)
}

func (p Path) parameters() []openapi3.ParameterOrRef {
	var params []openapi3.ParameterOrRef
	for _, el := range p {
		pp, ok := el.(pathParam)
		if !ok {
			continue
		}
		params = append(params, pp.spec())
	}
	return params
}

// PathParamValue returns the value of the named path parameter for the
// current request.
func PathParamValue(ctx context.Context, name string) string {
	rctx := chi.RouteContext(ctx)
	if rctx == nil {
		return ""
	}
	return rctx.URLParam(name)
}
