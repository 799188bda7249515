// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type testFile struct {
	name string
	mime string
	data []byte
}

func (f testFile) Filename() string { return f.name }
func (f testFile) MIMEType() string { return f.mime }
func (f testFile) Size() int64      { return int64(len(f.data)) }

func (f testFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

func mustRegistry(t *testing.T, defs []Definition, opts ...RegistryOption) *Registry {
	t.Helper()

	reg, err := NewRegistry(defs, opts...)
	require.NoError(t, err)
	return reg
}
