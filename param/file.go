// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
)

const (
	mimeOctetStream    = "application/octet-stream"
	mimeSVG            = "image/svg+xml"
	mimeDetectionBytes = 512
)

// File is an uploaded file as seen by the resolver.
type File interface {
	Filename() string
	MIMEType() string
	Size() int64
}

// Opener is implemented by files whose content can be read, which allows
// their MIME type to be detected from magic bytes instead of trusting the
// client supplied one.
type Opener interface {
	Open() (io.ReadCloser, error)
}

// MultipartFile adapts a [multipart.FileHeader] to a [File].
func MultipartFile(fh *multipart.FileHeader) File {
	return multipartFile{fh: fh}
}

type multipartFile struct {
	fh *multipart.FileHeader
}

func (f multipartFile) Filename() string { return f.fh.Filename }

func (f multipartFile) MIMEType() string {
	return f.fh.Header.Get("Content-Type")
}

func (f multipartFile) Size() int64 { return f.fh.Size }

func (f multipartFile) Open() (io.ReadCloser, error) {
	return f.fh.Open()
}

var imageTypes = map[string]struct{}{
	"image/jpeg":    {},
	"image/png":     {},
	"image/gif":     {},
	"image/webp":    {},
	"image/svg+xml": {},
	"image/bmp":     {},
	"image/tiff":    {},
	"image/x-icon":  {},
	"image/heic":    {},
	"image/heif":    {},
	"image/avif":    {},
}

// DetectMIME returns the MIME type of f. Files implementing [Opener] are
// sniffed from their first 512 bytes; the declared type is used when
// sniffing is not possible or inconclusive.
func DetectMIME(f File) string {
	declared := normalizeMIME(f.MIMEType())

	o, ok := f.(Opener)
	if !ok {
		return declared
	}

	rc, err := o.Open()
	if err != nil {
		return declared
	}
	defer rc.Close()

	buf := make([]byte, mimeDetectionBytes)
	n, err := io.ReadFull(rc, buf)
	if n == 0 && err != nil {
		return declared
	}

	sniffed := normalizeMIME(http.DetectContentType(buf[:n]))
	switch {
	case sniffed == mimeOctetStream && declared != "":
		return declared
	case declared == mimeSVG && isSVG(sniffed, buf[:n]):
		return declared
	}
	return sniffed
}

// isSVG reports whether sniffed content is SVG markup. Sniffing only
// tells XML or plain text, so the markup itself is checked.
func isSVG(sniffed string, head []byte) bool {
	if sniffed != "text/xml" && sniffed != "text/plain" {
		return false
	}
	return bytes.Contains(bytes.ToLower(head), []byte("<svg"))
}

// IsImage reports whether f is an image.
func IsImage(f File) bool {
	_, ok := imageTypes[DetectMIME(f)]
	return ok
}

func normalizeMIME(s string) string {
	if s == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(s)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return mt
}
