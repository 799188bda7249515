// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/z5labs/restkit/health"
	"github.com/z5labs/restkit/param"

	"github.com/stretchr/testify/require"
)

type listResponse struct {
	Params map[string]any `json:"params"`
}

func listParams(ctx context.Context) (*listResponse, error) {
	f, _ := FetcherFrom(ctx)
	all, err := f.All()
	if err != nil {
		return nil, err
	}
	return &listResponse{Params: all}, nil
}

func getOpenApiSpec(t *testing.T, api *Api) map[string]any {
	t.Helper()

	srv := httptest.NewServer(api)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/openapi.json")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var spec map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&spec))
	return spec
}

func lookup(t *testing.T, v any, keys ...string) any {
	t.Helper()

	for _, key := range keys {
		m, ok := v.(map[string]any)
		require.True(t, ok, "expected an object at %q", key)
		v, ok = m[key]
		require.True(t, ok, "missing key %q", key)
	}
	return v
}

func TestNewApi_openapi(t *testing.T) {
	api := NewApi(
		"Params",
		"v1.0.0",
		Operation(
			http.MethodGet,
			BasePath("/params").Param("id"),
			ProduceJson(ProducerFunc[listResponse](listParams)),
			OperationID("listParams"),
			Summary("List resolved parameters"),
			Parameters(param.Parameters{"min": "2"}),
			QueryParam("page", param.Requirements(`\d{%min%,}`), param.Default("10"), param.Description("page number")),
			QueryParam("ids", param.Map(), param.Requirements(`\d+`)),
			QueryParam("sort", param.IdenticalTo(param.Choice("asc", "asc"), param.Choice("desc", "desc")), param.Strict(true)),
		),
		Operation(
			http.MethodPost,
			BasePath("/files"),
			ProduceJson(ProducerFunc[listResponse](listParams)),
			RequestParam("title"),
			FileParam("avatar", param.Image()),
		),
	)

	spec := getOpenApiSpec(t, api)
	require.Equal(t, "3.0.3", spec["openapi"])
	require.Equal(t, "Params", lookup(t, spec, "info", "title"))

	t.Run("will describe query parameters", func(t *testing.T) {
		op := lookup(t, spec, "paths", "/params/{id}", "get")
		require.Equal(t, "listParams", lookup(t, op, "operationId"))
		require.Equal(t, "List resolved parameters", lookup(t, op, "summary"))

		params, ok := lookup(t, op, "parameters").([]any)
		require.True(t, ok)
		require.Len(t, params, 4)

		byName := map[string]map[string]any{}
		for _, p := range params {
			m := p.(map[string]any)
			byName[m["name"].(string)] = m
		}

		require.Equal(t, "path", byName["id"]["in"])
		require.Equal(t, true, byName["id"]["required"])

		page := byName["page"]
		require.Equal(t, "query", page["in"])
		require.Equal(t, "page number", page["description"])
		require.NotContains(t, page, "required")
		require.Equal(t, `^(?:\d{2,})$`, lookup(t, page, "schema", "pattern"))
		require.Equal(t, "10", lookup(t, page, "schema", "default"))

		ids := byName["ids[]"]
		require.Equal(t, "array", lookup(t, ids, "schema", "type"))
		require.Equal(t, `^(?:\d+)$`, lookup(t, ids, "schema", "items", "pattern"))

		sort := byName["sort"]
		require.NotContains(t, sort, "required")
		require.Equal(t, []any{"asc", "desc"}, lookup(t, sort, "schema", "enum"))
	})

	t.Run("will describe parameter failures as a 400 response", func(t *testing.T) {
		resp := lookup(t, spec, "paths", "/params/{id}", "get", "responses", "400")
		_ = lookup(t, resp, "content", "application/problem+json", "schema")
	})

	t.Run("will describe body and file parameters as a form", func(t *testing.T) {
		content, ok := lookup(t, spec, "paths", "/files", "post", "requestBody", "content").(map[string]any)
		require.True(t, ok)
		require.Contains(t, content, "multipart/form-data")
		require.NotContains(t, content, "application/json")

		props := lookup(t, content, "multipart/form-data", "schema", "properties")
		require.Equal(t, "binary", lookup(t, props, "avatar", "format"))
		require.Equal(t, "string", lookup(t, props, "title", "type"))

		require.NotContains(t, lookup(t, content, "multipart/form-data", "schema").(map[string]any), "required")
		require.NotContains(t, lookup(t, spec, "paths", "/files", "post", "requestBody").(map[string]any), "required")
	})
}

func TestNewApi_openapiMatchesResolution(t *testing.T) {
	api := NewApi(
		"Params",
		"v1.0.0",
		Operation(
			http.MethodPost,
			BasePath("/p"),
			ProduceJson(ProducerFunc[listResponse](listParams)),
			RequestParam("bar", param.Strict(true)),
			Force(),
		),
	)

	t.Run("will not publish an absent strict parameter as required", func(t *testing.T) {
		spec := getOpenApiSpec(t, api)

		body, ok := lookup(t, spec, "paths", "/p", "post", "requestBody").(map[string]any)
		require.True(t, ok)
		require.NotContains(t, body, "required")

		schema, ok := lookup(t, body, "content", "application/json", "schema").(map[string]any)
		require.True(t, ok)
		require.NotContains(t, schema, "required")
	})

	t.Run("will accept a request without the strict parameter", func(t *testing.T) {
		srv := httptest.NewServer(api)
		defer srv.Close()

		resp, err := http.Post(srv.URL+"/p", "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body listResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, map[string]any{"bar": nil}, body.Params)
	})
}

func TestNewApi_probes(t *testing.T) {
	t.Run("will report healthy by default", func(t *testing.T) {
		srv := httptest.NewServer(NewApi("Params", "v1.0.0"))
		defer srv.Close()

		for _, probe := range []string{"/health/readiness", "/health/liveness"} {
			resp, err := http.Get(srv.URL + probe)
			require.NoError(t, err)
			resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode, probe)
		}
	})

	t.Run("will report unavailable", func(t *testing.T) {
		t.Run("if the readiness monitor is unhealthy", func(t *testing.T) {
			var ready health.Binary
			srv := httptest.NewServer(NewApi("Params", "v1.0.0", Readiness(&ready)))
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/health/readiness")
			require.NoError(t, err)
			resp.Body.Close()
			require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

			ready.MarkHealthy()

			resp, err = http.Get(srv.URL + "/health/readiness")
			require.NoError(t, err)
			resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)
		})

		t.Run("if the liveness monitor fails", func(t *testing.T) {
			failing := health.MonitorFunc(func(context.Context) (bool, error) {
				return true, errors.New("failed")
			})
			srv := httptest.NewServer(NewApi("Params", "v1.0.0", Liveness(failing)))
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/health/liveness")
			require.NoError(t, err)
			resp.Body.Close()
			require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		})
	})
}

func TestNewApi_routing(t *testing.T) {
	t.Run("will use the custom not found handler", func(t *testing.T) {
		api := NewApi("Params", "v1.0.0", NotFound(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})))

		w := httptest.NewRecorder()
		api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
		require.Equal(t, http.StatusTeapot, w.Code)
	})

	t.Run("will use the custom method not allowed handler", func(t *testing.T) {
		api := NewApi(
			"Params",
			"v1.0.0",
			Operation(http.MethodGet, BasePath("/params"), ProduceJson(ProducerFunc[listResponse](listParams))),
			MethodNotAllowed(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
			})),
		)

		w := httptest.NewRecorder()
		api.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/params", nil))
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("will apply middleware to every route", func(t *testing.T) {
		api := NewApi(
			"Params",
			"v1.0.0",
			Operation(http.MethodGet, BasePath("/params"), ProduceJson(ProducerFunc[listResponse](listParams))),
			Middleware(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.Header().Set("X-Middleware", "applied")
					next.ServeHTTP(w, r)
				})
			}),
		)

		for _, target := range []string{"/params", "/health/liveness", "/openapi.json"} {
			w := httptest.NewRecorder()
			api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
			require.Equal(t, "applied", w.Header().Get("X-Middleware"), target)
		}
	})
}

func TestPath(t *testing.T) {
	testCases := []struct {
		Name     string
		Path     Path
		Expected string
	}{
		{Name: "base path only", Path: BasePath("/params"), Expected: "/params"},
		{Name: "with segments", Path: BasePath("/file").Segment("test"), Expected: "/file/test"},
		{Name: "with params", Path: BasePath("/params").Param("id").Segment("files").Param("name"), Expected: "/params/{id}/files/{name}"},
		{Name: "empty", Path: nil, Expected: ""},
	}

	for _, testCase := range testCases {
		t.Run("will format "+testCase.Name, func(t *testing.T) {
			require.Equal(t, testCase.Expected, testCase.Path.String())
		})
	}
}
