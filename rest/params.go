// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"maps"
	"strings"

	"github.com/z5labs/restkit/param"

	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/ptr"
)

// QueryParam declares a query string parameter for the operation.
// Query parameters are lenient unless [param.Strict] is given.
//
// Example:
//
//	rest.QueryParam("foz", param.Requirements(`[a-z]+`))
//	rest.QueryParam("baz", param.Requirements(`[a-z]+`), param.IncompatibleWith("foz"))
func QueryParam(name string, opts ...param.Option) OperationOption {
	return declare(param.QueryParam(name, opts...))
}

// RequestParam declares a request body parameter for the operation.
// Body parameters are strict unless [param.Strict] is given.
func RequestParam(name string, opts ...param.Option) OperationOption {
	return declare(param.RequestParam(name, opts...))
}

// FileParam declares an uploaded file parameter for the operation.
// File parameters are strict unless [param.Strict] is given.
func FileParam(name string, opts ...param.Option) OperationOption {
	return declare(param.FileParam(name, opts...))
}

func declare(d param.Definition) OperationOption {
	return func(oo *OperationOptions) {
		oo.defs = append(oo.defs, d)
	}
}

// Parameters provides the process-wide parameter bag used by %name%
// placeholders in parameter defaults and requirements.
func Parameters(p param.Parameters) OperationOption {
	return func(oo *OperationOptions) {
		if oo.params == nil {
			oo.params = make(param.Parameters, len(p))
		}
		maps.Copy(oo.params, p)
	}
}

// Force resolves and validates every parameter before the handler is
// called. Invalid requests are rejected with a 400 and the resolved values
// are available through [ParamValue].
func Force() OperationOption {
	return func(oo *OperationOptions) {
		oo.force = true
	}
}

// RequestOptions configures how raw parameters are read from requests,
// e.g. [param.MaxBodyBytes].
func RequestOptions(opts ...param.RequestOption) OperationOption {
	return func(oo *OperationOptions) {
		oo.requestOpts = append(oo.requestOpts, opts...)
	}
}

type fetcherCtxKey struct{}

type paramValuesCtxKey struct{}

func withFetcher(ctx context.Context, f *param.Fetcher) context.Context {
	return context.WithValue(ctx, fetcherCtxKey{}, f)
}

func withParamValues(ctx context.Context, values map[string]any) context.Context {
	return context.WithValue(ctx, paramValuesCtxKey{}, values)
}

// FetcherFrom returns the [param.Fetcher] of the current request.
func FetcherFrom(ctx context.Context) (*param.Fetcher, bool) {
	f, ok := ctx.Value(fetcherCtxKey{}).(*param.Fetcher)
	return f, ok
}

// ParamValue returns the resolved value of the named parameter. It returns
// nil if the parameter is unknown or failed validation; use [FetcherFrom]
// to inspect the error.
func ParamValue(ctx context.Context, name string) any {
	if values, ok := ctx.Value(paramValuesCtxKey{}).(map[string]any); ok {
		return values[name]
	}

	f, ok := FetcherFrom(ctx)
	if !ok {
		return nil
	}
	v, err := f.Get(name)
	if err != nil {
		return nil
	}
	return v
}

func schemaOf(d param.Definition, pattern string) *openapi3.Schema {
	item := &openapi3.Schema{
		Type: ptr.Ref(openapi3.SchemaTypeString),
	}
	if d.Kind == param.FileUpload {
		item.Format = ptr.Ref("binary")
	}
	if pattern != "" {
		item.Pattern = ptr.Ref("^(?:" + pattern + ")$")
	}
	for _, c := range d.Candidates {
		item.Enum = append(item.Enum, c.Value)
	}
	if s, ok := d.Default.(string); ok && !d.Map && !strings.Contains(s, "%") {
		var def any = s
		item.Default = &def
	}
	if d.Nullable {
		item.Nullable = ptr.Ref(true)
	}
	if !d.Map {
		return item
	}

	return &openapi3.Schema{
		Type: ptr.Ref(openapi3.SchemaTypeArray),
		Items: &openapi3.SchemaOrRef{
			Schema: item,
		},
	}
}

func readsBody(reg *param.Registry) bool {
	for _, d := range reg.Definitions() {
		if d.Kind != param.Query {
			return true
		}
	}
	return false
}

func queryParameters(reg *param.Registry) []openapi3.ParameterOrRef {
	var params []openapi3.ParameterOrRef
	for _, d := range reg.Definitions() {
		if d.Kind != param.Query {
			continue
		}

		pattern, _ := reg.Pattern(d.Name)
		p := &openapi3.Parameter{
			Name:   d.Key,
			In:     openapi3.ParameterInQuery,
			Schema: &openapi3.SchemaOrRef{Schema: schemaOf(d, pattern)},
		}
		if p.Name == "" {
			p.Name = d.Name
		}
		if d.Map {
			p.Name += "[]"
		}
		if d.Description != "" {
			p.Description = ptr.Ref(d.Description)
		}
		params = append(params, openapi3.ParameterOrRef{Parameter: p})
	}
	return params
}

// requestBodyParameters describes the body and file parameters as a form
// and, without files, a JSON object.
func requestBodyParameters(reg *param.Registry) openapi3.RequestBodyOrRef {
	obj := &openapi3.Schema{
		Type:       ptr.Ref(openapi3.SchemaTypeObject),
		Properties: map[string]openapi3.SchemaOrRef{},
	}

	var hasFiles bool
	for _, d := range reg.Definitions() {
		if d.Kind == param.Query {
			continue
		}
		hasFiles = hasFiles || d.Kind == param.FileUpload

		key := d.Key
		if key == "" {
			key = d.Name
		}
		pattern, _ := reg.Pattern(d.Name)
		schema := schemaOf(d, pattern)
		if d.Description != "" {
			schema.Description = ptr.Ref(d.Description)
		}
		obj.Properties[key] = openapi3.SchemaOrRef{Schema: schema}
	}
	if len(obj.Properties) == 0 {
		return openapi3.RequestBodyOrRef{}
	}

	content := map[string]openapi3.MediaType{
		"multipart/form-data": {
			Schema: &openapi3.SchemaOrRef{Schema: obj},
		},
	}
	if !hasFiles {
		content["application/json"] = openapi3.MediaType{
			Schema: &openapi3.SchemaOrRef{Schema: obj},
		}
		content["application/x-www-form-urlencoded"] = openapi3.MediaType{
			Schema: &openapi3.SchemaOrRef{Schema: obj},
		}
	}

	return openapi3.RequestBodyOrRef{
		RequestBody: &openapi3.RequestBody{
			Content: content,
		},
	}
}
