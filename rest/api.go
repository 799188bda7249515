// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/z5labs/restkit"
	"github.com/z5labs/restkit/health"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/openapi-go/openapi3"
)

// ApiOptions holds configuration values used when constructing an [Api].
// This struct is passed to [ApiOption] implementations to configure the API's
// router and OpenAPI specification.
type ApiOptions struct {
	def         *openapi3.Spec
	middlewares []func(http.Handler) http.Handler
	routes      []func(chi.Router)
	readiness   health.Monitor
	liveness    health.Monitor
	notFound    http.Handler
	notAllowed  http.Handler
}

// ApiOption is an interface for configuring an [Api].
// Implementations can modify the API's router or OpenAPI specification.
//
// Common implementations include:
//   - [Operation] - registers HTTP operations
//   - [Versioning] - resolves the requested API version
//   - [Readiness] - configures readiness probe endpoint
//   - [Liveness] - configures liveness probe endpoint
//   - [NotFound] - customizes 404 handling
//   - [MethodNotAllowed] - customizes 405 handling
type ApiOption interface {
	ApplyApiOption(*ApiOptions)
}

type apiOptionFunc func(*ApiOptions)

func (f apiOptionFunc) ApplyApiOption(ao *ApiOptions) {
	f(ao)
}

func (ao *ApiOptions) route(f func(chi.Router)) {
	ao.routes = append(ao.routes, f)
}

// Middleware wraps every route of the [Api], including the probes and
// /openapi.json, with the given middlewares.
func Middleware(mws ...func(http.Handler) http.Handler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.middlewares = append(ao.middlewares, mws...)
	})
}

// Readiness backs the GET /health/readiness probe with m. Readiness
// probes indicate whether the application is ready to serve traffic.
//
// See [Liveness, Readiness, and Startup Probes] for more details.
//
// [Liveness, Readiness, and Startup Probes]: https://kubernetes.io/docs/concepts/configuration/liveness-readiness-startup-probes/
func Readiness(m health.Monitor) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.readiness = m
	})
}

// Liveness backs the GET /health/liveness probe with m. Liveness probes
// indicate whether the application should be restarted.
//
// See [Liveness, Readiness, and Startup Probes] for more details.
//
// [Liveness, Readiness, and Startup Probes]: https://kubernetes.io/docs/concepts/configuration/liveness-readiness-startup-probes/
func Liveness(m health.Monitor) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.liveness = m
	})
}

// NotFound configures a custom handler for requests that don't match any registered routes.
// This overrides the default 404 Not Found behavior.
func NotFound(h http.Handler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.notFound = h
	})
}

// MethodNotAllowed configures a custom handler for requests to valid routes
// with unsupported HTTP methods. This overrides the default 405 Method Not Allowed behavior.
func MethodNotAllowed(h http.Handler) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		ao.notAllowed = h
	})
}

var alwaysHealthy = health.MonitorFunc(func(context.Context) (bool, error) {
	return true, nil
})

func probe(m health.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		healthy, err := m.Healthy(r.Context())
		if !healthy || err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

// Api is an OpenAPI-compliant [http.Handler] that serves as the foundation
// for building REST APIs.
//
// # Standard Features
//
// Every Api automatically provides:
//   - OpenAPI 3.0 schema available at GET /openapi.json
//   - Liveness probe at GET /health/liveness (200 OK unless a [Liveness] monitor is unhealthy)
//   - Readiness probe at GET /health/readiness (200 OK unless a [Readiness] monitor is unhealthy)
//   - Standard 404 Not Found handling
//   - Standard 405 Method Not Allowed handling
//
// # Usage
//
// Create an Api using [NewApi], passing operations created with [Operation]:
//
//	list := rest.Operation(
//	    http.MethodGet,
//	    rest.BasePath("/books"),
//	    rest.ProduceJson(listBooks),
//	    rest.QueryParam("page", param.Requirements(`\d+`), param.Default("1")),
//	)
//	api := rest.NewApi("Bookstore", "v1.0.0", list)
//	http.ListenAndServe(":8080", api)
type Api struct {
	router *chi.Mux
}

// NewApi creates a new [Api] with the specified title and version.
//
// The title and version are included in the OpenAPI specification served at /openapi.json.
// Operations and configuration are added via [ApiOption] parameters.
func NewApi(title, version string, opts ...ApiOption) *Api {
	log := restkit.Logger("github.com/z5labs/restkit/rest")

	ao := &ApiOptions{
		def: &openapi3.Spec{
			Openapi: "3.0.3",
			Info: openapi3.Info{
				Title:   title,
				Version: version,
			},
		},
		readiness: alwaysHealthy,
		liveness:  alwaysHealthy,
	}
	for _, opt := range opts {
		opt.ApplyApiOption(ao)
	}

	// chi requires every middleware to be registered before any route
	mux := chi.NewMux()
	mux.Use(ao.middlewares...)
	for _, route := range ao.routes {
		route(mux)
	}
	if ao.notFound != nil {
		mux.NotFound(ao.notFound.ServeHTTP)
	}
	if ao.notAllowed != nil {
		mux.MethodNotAllowed(ao.notAllowed.ServeHTTP)
	}

	mux.Get("/health/readiness", probe(ao.readiness))
	mux.Get("/health/liveness", probe(ao.liveness))
	mux.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		enc := json.NewEncoder(w)
		err := enc.Encode(ao.def)
		if err == nil {
			return
		}
		log.ErrorContext(
			r.Context(),
			"failed to encode openapi schema to json",
			slog.Any("error", err),
		)
	})

	return &Api{
		router: mux,
	}
}

// ServeHTTP implements the [http.Handler] interface.
// It delegates request handling to the configured router, which dispatches
// requests to the appropriate operation handlers based on method and path.
func (api *Api) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	api.router.ServeHTTP(w, req)
}
