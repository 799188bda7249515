// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// ErrMalformedRequest is returned by [FromRequest] when the request body
// cannot be decoded.
var ErrMalformedRequest = errors.New("param: malformed request")

type requestOptions struct {
	maxMemory    int64
	maxBodyBytes int64
	skipBody     bool
}

// RequestOption configures [FromRequest].
type RequestOption func(*requestOptions)

// MaxMemory bounds how much of a multipart form is held in memory before
// file parts spill to disk.
func MaxMemory(n int64) RequestOption {
	return func(ro *requestOptions) {
		ro.maxMemory = n
	}
}

// MaxBodyBytes bounds the size of the request body.
func MaxBodyBytes(n int64) RequestOption {
	return func(ro *requestOptions) {
		ro.maxBodyBytes = n
	}
}

// SkipBody leaves the request body untouched, e.g. when only query
// parameters are declared.
func SkipBody() RequestOption {
	return func(ro *requestOptions) {
		ro.skipBody = true
	}
}

// FromRequest materializes the query string, body and uploaded files of r
// into a [Values] snapshot.
//
// Repeated query keys and keys ending in "[]" produce lists. JSON object
// bodies, url-encoded forms and multipart forms are supported. A JSON body
// is buffered and r.Body is replaced so it can be read again.
func FromRequest(r *http.Request, opts ...RequestOption) (Values, error) {
	ro := &requestOptions{
		maxMemory:    32 << 20,
		maxBodyBytes: 10 << 20,
	}
	for _, opt := range opts {
		opt(ro)
	}

	v := Values{
		Query: flattenValues(r.URL.Query()),
		Body:  map[string]any{},
		Files: map[string]any{},
	}

	if ro.skipBody || r.Body == nil || r.Body == http.NoBody {
		return v, nil
	}
	if ro.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(nil, r.Body, ro.maxBodyBytes)
	}

	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return v, nil
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return v, fmt.Errorf("%w: content type: %w", ErrMalformedRequest, err)
	}

	switch {
	case mediaType == "application/json" || strings.HasSuffix(mediaType, "+json"):
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return v, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
		}
		// handlers decoding the body themselves still get to read it
		r.Body = io.NopCloser(bytes.NewReader(b))

		body, err := decodeJSON(bytes.NewReader(b))
		if err != nil {
			return v, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
		}
		v.Body = body
	case mediaType == "application/x-www-form-urlencoded":
		err := r.ParseForm()
		if err != nil {
			return v, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
		}
		v.Body = flattenValues(r.PostForm)
	case mediaType == "multipart/form-data":
		err := r.ParseMultipartForm(ro.maxMemory)
		if err != nil {
			return v, fmt.Errorf("%w: %w", ErrMalformedRequest, err)
		}
		v.Body = flattenValues(r.MultipartForm.Value)
		for key, fhs := range r.MultipartForm.File {
			key, list := normalizeKey(key)
			files := make([]any, 0, len(fhs))
			for _, fh := range fhs {
				files = append(files, MultipartFile(fh))
			}
			appendValue(v.Files, key, list, files)
		}
	}
	return v, nil
}

func decodeJSON(r io.Reader) (map[string]any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var body map[string]any
	err := dec.Decode(&body)
	if errors.Is(err, io.EOF) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	if body == nil {
		body = map[string]any{}
	}
	return body, nil
}

func flattenValues(vals url.Values) map[string]any {
	m := make(map[string]any, len(vals))
	for key, vs := range vals {
		key, list := normalizeKey(key)
		items := make([]any, len(vs))
		for i, s := range vs {
			items[i] = s
		}
		appendValue(m, key, list, items)
	}
	return m
}

func normalizeKey(key string) (string, bool) {
	name, ok := strings.CutSuffix(key, "[]")
	return name, ok
}

// appendValue stores items under key, merging with anything already there
// since both "a" and "a[]" map to the same key.
func appendValue(m map[string]any, key string, list bool, items []any) {
	if prev, ok := m[key]; ok {
		prevItems, isList := prev.([]any)
		if !isList {
			prevItems = []any{prev}
		}
		m[key] = append(prevItems, items...)
		return
	}
	if !list && len(items) == 1 {
		m[key] = items[0]
		return
	}
	m[key] = items
}
