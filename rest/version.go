// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"net/http"

	"github.com/z5labs/restkit/version"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type versionCtxKey struct{}

// Versioning resolves the API version requested by every request with r
// and makes it available through [VersionFrom].
//
// Example:
//
//	res, err := version.Config{DefaultVersion: "1.0"}.Resolver()
//	if err != nil {
//	    return nil, err
//	}
//	api := rest.NewApi("Books", "v1.0.0", rest.Versioning(res), listBooks)
func Versioning(r version.Resolver) ApiOption {
	return Middleware(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			v, ok := r.Resolve(req)
			if !ok {
				next.ServeHTTP(w, req)
				return
			}

			ctx := req.Context()
			trace.SpanFromContext(ctx).SetAttributes(attribute.String("rest.api.version", v))
			next.ServeHTTP(w, req.WithContext(context.WithValue(ctx, versionCtxKey{}, v)))
		})
	})
}

// VersionFrom returns the API version resolved for the current request.
func VersionFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(versionCtxKey{}).(string)
	return v, ok
}
