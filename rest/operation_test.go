// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/z5labs/restkit/param"

	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type fileResponse struct {
	Name string `json:"name"`
}

type msgRequest struct {
	Msg string `json:"msg"`
}

type msgResponse struct {
	Msg  string `json:"msg"`
	Raw  any    `json:"raw"`
	Name string `json:"name"`
}

func decodeProblem(t *testing.T, resp *http.Response) InvalidParamsProblem {
	t.Helper()

	require.Equal(t, "application/problem+json", resp.Header.Get("Content-Type"))

	var p InvalidParamsProblem
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	return p
}

func TestOperation(t *testing.T) {
	problems := NewProblemDetailsErrorHandler(WithDefaultType("https://example.com/problems/"))

	t.Run("will resolve defaults from earlier parameters", func(t *testing.T) {
		api := NewApi(
			"Params",
			"v1.0.0",
			Operation(
				http.MethodGet,
				BasePath("/params"),
				ProduceJson(ProducerFunc[listResponse](listParams)),
				QueryParam("foo", param.Default("invalid")),
				RequestParam("bar", param.Default("%foo%")),
			),
		)

		srv := httptest.NewServer(api)
		defer srv.Close()

		resp, err := http.Get(srv.URL + "/params")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var body listResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Equal(t, map[string]any{"foo": "invalid", "bar": "invalid"}, body.Params)
	})

	t.Run("will substitute the default for lenient query parameters", func(t *testing.T) {
		api := NewApi(
			"Params",
			"v1.0.0",
			Operation(
				http.MethodGet,
				BasePath("/params"),
				ProduceJson(ProducerFunc[listResponse](listParams)),
				QueryParam("page", param.Requirements(`\d+`), param.Default("1")),
			),
		)

		w := httptest.NewRecorder()
		api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/params?page=abc", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var body listResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Equal(t, "1", body.Params["page"])
	})

	t.Run("will return a bad request", func(t *testing.T) {
		t.Run("if forced parameters are incompatible", func(t *testing.T) {
			api := NewApi(
				"Params",
				"v1.0.0",
				Operation(
					http.MethodGet,
					BasePath("/params"),
					ProduceJson(ProducerFunc[listResponse](listParams)),
					QueryParam("foz"),
					QueryParam("baz", param.IncompatibleWith("foz")),
					Force(),
					OnError(problems),
				),
			)

			srv := httptest.NewServer(api)
			defer srv.Close()

			resp, err := http.Get(srv.URL + "/params?foz=a&baz=b")
			require.NoError(t, err)
			defer resp.Body.Close()
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			p := decodeProblem(t, resp)
			require.Equal(t, "https://example.com/problems/incompatible-parameters", p.Type)
			require.Equal(t, "Incompatible Parameters", p.Title)
			require.Equal(t, http.StatusBadRequest, p.Status)
			require.True(t, strings.HasPrefix(p.Instance, "urn:uuid:"))
			require.Len(t, p.InvalidParams, 1)
			require.Equal(t, "incompatible", p.InvalidParams[0].Reason)
			require.ElementsMatch(t, []string{"foz", "baz"}, []string{p.InvalidParams[0].Name, p.InvalidParams[0].Other})
		})

		t.Run("if the handler reads a parameter strictly", func(t *testing.T) {
			api := NewApi(
				"Params",
				"v1.0.0",
				Operation(
					http.MethodGet,
					BasePath("/params"),
					ProduceJson(ProducerFunc[listResponse](func(ctx context.Context) (*listResponse, error) {
						f, _ := FetcherFrom(ctx)
						page, err := f.String("page", param.WithStrict(true))
						if err != nil {
							return nil, err
						}
						return &listResponse{Params: map[string]any{"page": page}}, nil
					})),
					QueryParam("page", param.Requirements(`\d+`), param.Default("1")),
					OnError(problems),
				),
			)

			w := httptest.NewRecorder()
			api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/params?page=abc", nil))
			require.Equal(t, http.StatusBadRequest, w.Code)

			resp := w.Result()
			p := decodeProblem(t, resp)
			require.Equal(t, "https://example.com/problems/invalid-parameter-value", p.Type)
			require.Equal(t, []InvalidParam{{Name: "page", In: "query", Reason: "requirement_mismatch"}}, p.InvalidParams)
		})

		t.Run("if a strict body parameter is invalid", func(t *testing.T) {
			api := NewApi(
				"Params",
				"v1.0.0",
				Operation(
					http.MethodPost,
					BasePath("/params"),
					ProduceJson(ProducerFunc[listResponse](listParams)),
					RequestParam("raw", param.Requirements(`[a-z]+`)),
					Force(),
				),
			)

			form := url.Values{"raw": {"123"}}
			req := httptest.NewRequest(http.MethodPost, "/params", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			w := httptest.NewRecorder()
			api.ServeHTTP(w, req)
			require.Equal(t, http.StatusBadRequest, w.Code)
		})

		t.Run("if the json body is malformed", func(t *testing.T) {
			api := NewApi(
				"Params",
				"v1.0.0",
				Operation(
					http.MethodPost,
					BasePath("/params"),
					ProduceJson(ProducerFunc[listResponse](listParams)),
					RequestParam("raw"),
					OnError(problems),
				),
			)

			req := httptest.NewRequest(http.MethodPost, "/params", strings.NewReader(`{"raw":`))
			req.Header.Set("Content-Type", "application/json")

			w := httptest.NewRecorder()
			api.ServeHTTP(w, req)
			require.Equal(t, http.StatusBadRequest, w.Code)

			p := decodeProblem(t, w.Result())
			require.Equal(t, "https://example.com/problems/malformed-request", p.Type)
			require.Equal(t, "Malformed Request", p.Title)
			require.Empty(t, p.InvalidParams)
		})

		t.Run("if an uploaded file is not an image", func(t *testing.T) {
			api := NewApi(
				"Params",
				"v1.0.0",
				Operation(
					http.MethodPost,
					BasePath("/file"),
					ProduceJson(ProducerFunc[listResponse](listParams)),
					FileParam("avatar", param.Image()),
					Force(),
					OnError(problems),
				),
			)

			req := multipartRequest(t, "/file", "avatar", "notes.txt", []byte("hello"))

			w := httptest.NewRecorder()
			api.ServeHTTP(w, req)
			require.Equal(t, http.StatusBadRequest, w.Code)

			p := decodeProblem(t, w.Result())
			require.Equal(t, []InvalidParam{{Name: "avatar", In: "file", Reason: "not_image"}}, p.InvalidParams)
		})
	})

	t.Run("will provide forced values to the handler", func(t *testing.T) {
		api := NewApi(
			"Params",
			"v1.0.0",
			Operation(
				http.MethodGet,
				BasePath("/params").Param("id"),
				ProduceJson(ProducerFunc[listResponse](func(ctx context.Context) (*listResponse, error) {
					return &listResponse{Params: map[string]any{
						"id":   PathParamValue(ctx, "id"),
						"sort": ParamValue(ctx, "sort"),
						"nope": ParamValue(ctx, "unknown"),
					}}, nil
				})),
				QueryParam("sort", param.IdenticalTo(param.Choice("asc", "asc"), param.Choice("desc", "desc")), param.Default("asc")),
				Force(),
			),
		)

		w := httptest.NewRecorder()
		api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/params/42?sort=desc", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var body listResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Equal(t, "42", body.Params["id"])
		require.Equal(t, "desc", body.Params["sort"])
		require.Nil(t, body.Params["nope"])
	})

	t.Run("will leave the json body readable by the handler", func(t *testing.T) {
		api := NewApi(
			"Params",
			"v1.0.0",
			Operation(
				http.MethodPost,
				BasePath("/params"),
				HandleJson(HandlerFunc[msgRequest, msgResponse](func(ctx context.Context, req *msgRequest) (*msgResponse, error) {
					return &msgResponse{Msg: req.Msg, Raw: ParamValue(ctx, "msg")}, nil
				})),
				RequestParam("msg"),
				Force(),
			),
		)

		req := httptest.NewRequest(http.MethodPost, "/params", strings.NewReader(`{"msg":"hello"}`))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		api.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var body msgResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Equal(t, "hello", body.Msg)
		require.Equal(t, "hello", body.Raw)
	})

	t.Run("will not parse request bodies without body parameters", func(t *testing.T) {
		api := NewApi(
			"Params",
			"v1.0.0",
			Operation(
				http.MethodPost,
				BasePath("/params"),
				HandleJson(HandlerFunc[[]string, msgResponse](func(ctx context.Context, req *[]string) (*msgResponse, error) {
					return &msgResponse{Msg: strings.Join(*req, ",")}, nil
				})),
				QueryParam("page"),
			),
		)

		req := httptest.NewRequest(http.MethodPost, "/params?page=1", strings.NewReader(`["a","b"]`))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		api.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var body msgResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Equal(t, "a,b", body.Msg)
	})

	t.Run("will accept an uploaded image", func(t *testing.T) {
		api := NewApi(
			"Params",
			"v1.0.0",
			Operation(
				http.MethodPost,
				BasePath("/file"),
				ProduceJson(ProducerFunc[fileResponse](func(ctx context.Context) (*fileResponse, error) {
					f, _ := FetcherFrom(ctx)
					file, err := f.File("avatar")
					if err != nil {
						return nil, err
					}
					return &fileResponse{Name: file.Filename()}, nil
				})),
				FileParam("avatar", param.Image()),
			),
		)

		w := httptest.NewRecorder()
		api.ServeHTTP(w, multipartRequest(t, "/file", "avatar", "logo.png", pngHeader))
		require.Equal(t, http.StatusOK, w.Code)

		var body fileResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		require.Equal(t, "logo.png", body.Name)
	})

	t.Run("will return an internal server error", func(t *testing.T) {
		t.Run("if the handler panics", func(t *testing.T) {
			api := NewApi(
				"Params",
				"v1.0.0",
				Operation(
					http.MethodGet,
					BasePath("/params"),
					ProduceJson(ProducerFunc[listResponse](func(ctx context.Context) (*listResponse, error) {
						panic("unexpected")
					})),
					OnError(problems),
				),
			)

			w := httptest.NewRecorder()
			api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/params", nil))
			require.Equal(t, http.StatusInternalServerError, w.Code)

			p := decodeProblem(t, w.Result())
			require.Equal(t, "Internal Server Error", p.Title)
			require.NotContains(t, p.Detail, "unexpected")
		})

		t.Run("if the handler fails without a custom error handler", func(t *testing.T) {
			api := NewApi(
				"Params",
				"v1.0.0",
				Operation(
					http.MethodGet,
					BasePath("/params"),
					ProduceJson(ProducerFunc[listResponse](func(ctx context.Context) (*listResponse, error) {
						return nil, errors.New("failed")
					})),
				),
			)

			w := httptest.NewRecorder()
			api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/params", nil))
			require.Equal(t, http.StatusInternalServerError, w.Code)
		})
	})

	t.Run("will panic", func(t *testing.T) {
		t.Run("if a parameter is declared twice", func(t *testing.T) {
			require.Panics(t, func() {
				NewApi(
					"Params",
					"v1.0.0",
					Operation(
						http.MethodGet,
						BasePath("/params"),
						ProduceJson(ProducerFunc[listResponse](listParams)),
						QueryParam("foo"),
						QueryParam("foo"),
					),
				)
			})
		})
	})
}

func multipartRequest(t *testing.T, target, field, filename string, data []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}
