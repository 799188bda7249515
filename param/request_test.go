// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromRequest(t *testing.T) {
	t.Run("will read the query string", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/params?foz=a&tags=x&tags=y&ids[]=1", nil)

		v, err := FromRequest(r)
		require.NoError(t, err)

		require.Equal(t, "a", v.Query["foz"])
		require.Equal(t, []any{"x", "y"}, v.Query["tags"])
		require.Equal(t, []any{"1"}, v.Query["ids"])
		require.Empty(t, v.Body)
		require.Empty(t, v.Files)
	})

	t.Run("will decode a json object body", func(t *testing.T) {
		body := `{"raw":"foo","map":["map","foo"],"count":3,"bar":null}`
		r := httptest.NewRequest(http.MethodPost, "/params", strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")

		v, err := FromRequest(r)
		require.NoError(t, err)

		require.Equal(t, "foo", v.Body["raw"])
		require.Equal(t, []any{"map", "foo"}, v.Body["map"])
		require.Equal(t, json.Number("3"), v.Body["count"])

		bar, ok := v.BodyValue("bar")
		require.True(t, ok)
		require.Nil(t, bar)
	})

	t.Run("will decode a url encoded form", func(t *testing.T) {
		form := url.Values{"raw": {"foo"}, "map[]": {"a", "b"}}
		r := httptest.NewRequest(http.MethodPost, "/params", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		v, err := FromRequest(r)
		require.NoError(t, err)

		require.Equal(t, "foo", v.Body["raw"])
		require.Equal(t, []any{"a", "b"}, v.Body["map"])
	})

	t.Run("will read multipart files in request order", func(t *testing.T) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)

		require.NoError(t, w.WriteField("raw", "foo"))
		for _, name := range []string{"first.png", "second.txt"} {
			part, err := w.CreateFormFile("array_files[]", name)
			require.NoError(t, err)
			_, err = part.Write(pngHeader)
			require.NoError(t, err)
		}
		part, err := w.CreateFormFile("single_file", "single.txt")
		require.NoError(t, err)
		_, err = part.Write([]byte("hello"))
		require.NoError(t, err)
		require.NoError(t, w.Close())

		r := httptest.NewRequest(http.MethodPost, "/files", &buf)
		r.Header.Set("Content-Type", w.FormDataContentType())

		v, err := FromRequest(r)
		require.NoError(t, err)

		require.Equal(t, "foo", v.Body["raw"])

		files, ok := v.Files["array_files"].([]any)
		require.True(t, ok)
		require.Len(t, files, 2)
		require.Equal(t, "first.png", files[0].(File).Filename())
		require.Equal(t, "second.txt", files[1].(File).Filename())
		require.True(t, IsImage(files[0].(File)))

		single, ok := v.Files["single_file"].(File)
		require.True(t, ok)
		require.Equal(t, int64(5), single.Size())
		require.False(t, IsImage(single))
	})

	t.Run("will return an error", func(t *testing.T) {
		t.Run("if the json body is malformed", func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/params", strings.NewReader(`{"raw":`))
			r.Header.Set("Content-Type", "application/json")

			_, err := FromRequest(r)
			require.ErrorIs(t, err, ErrMalformedRequest)
		})

		t.Run("if the json body is not an object", func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/params", strings.NewReader(`["raw"]`))
			r.Header.Set("Content-Type", "application/json")

			_, err := FromRequest(r)
			require.ErrorIs(t, err, ErrMalformedRequest)
		})

		t.Run("if the body is too large", func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/params", strings.NewReader(`{"raw":"foo"}`))
			r.Header.Set("Content-Type", "application/json")

			_, err := FromRequest(r, MaxBodyBytes(4))
			require.ErrorIs(t, err, ErrMalformedRequest)

			var maxErr *http.MaxBytesError
			require.ErrorAs(t, err, &maxErr)
		})
	})

	t.Run("will ignore bodies without a content type", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/params", strings.NewReader(`{"raw":"foo"}`))

		v, err := FromRequest(r)
		require.NoError(t, err)
		require.Empty(t, v.Body)
	})

	t.Run("will not read the body when told to skip it", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/params?foz=a", strings.NewReader(`[1, 2]`))
		r.Header.Set("Content-Type", "application/json")

		v, err := FromRequest(r, SkipBody())
		require.NoError(t, err)
		require.Equal(t, "a", v.Query["foz"])
		require.Empty(t, v.Body)

		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, `[1, 2]`, string(b))
	})
}

func TestFromRequest_rereadableBody(t *testing.T) {
	t.Run("will leave a json body readable", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/params", strings.NewReader(`{"raw":"foo"}`))
		r.Header.Set("Content-Type", "application/json")

		_, err := FromRequest(r)
		require.NoError(t, err)

		var body struct {
			Raw string `json:"raw"`
		}
		err = json.NewDecoder(r.Body).Decode(&body)
		require.NoError(t, err)
		require.Equal(t, "foo", body.Raw)
	})
}
