// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

// Source provides raw request values. A value is either a scalar or a
// []any holding multiple items. Uploaded files are [File] values.
type Source interface {
	QueryValue(key string) (any, bool)
	BodyValue(key string) (any, bool)
	UploadedFile(key string) (any, bool)
}

// Values is an in-memory [Source].
type Values struct {
	Query map[string]any
	Body  map[string]any
	Files map[string]any
}

// QueryValue implements the [Source] interface.
func (v Values) QueryValue(key string) (any, bool) {
	x, ok := v.Query[key]
	return x, ok
}

// BodyValue implements the [Source] interface.
func (v Values) BodyValue(key string) (any, bool) {
	x, ok := v.Body[key]
	return x, ok
}

// UploadedFile implements the [Source] interface.
func (v Values) UploadedFile(key string) (any, bool) {
	x, ok := v.Files[key]
	return x, ok
}

func lookup(src Source, d Definition) (any, bool) {
	switch d.Kind {
	case Query:
		return src.QueryValue(d.key())
	case RequestBody:
		return src.BodyValue(d.key())
	case FileUpload:
		return src.UploadedFile(d.key())
	default:
		return nil, false
	}
}
