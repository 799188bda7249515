// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package endpoint

import (
	"context"
	"net/http"

	"github.com/z5labs/restkit/param"
	"github.com/z5labs/restkit/rest"
)

// SingleFileResponse names the uploaded file, or the default when none was sent.
type SingleFileResponse struct {
	SingleFile string `json:"single_file"`
}

// SingleFile accepts an optional upload named single_file.
func SingleFile(opts ...rest.OperationOption) rest.ApiOption {
	opts = append(
		opts,
		rest.OperationID("uploadSingleFile"),
		rest.FileParam("single_file", param.Strict(false), param.Default("noFile")),
	)

	return rest.Operation(
		http.MethodPost,
		rest.BasePath("/file").Segment("test"),
		rest.ProduceJson(rest.ProducerFunc[SingleFileResponse](singleFile)),
		opts...,
	)
}

func singleFile(ctx context.Context) (*SingleFileResponse, error) {
	f, _ := rest.FetcherFrom(ctx)
	v, err := f.Get("single_file")
	if err != nil {
		return nil, err
	}
	return &SingleFileResponse{SingleFile: fileName(v)}, nil
}

// FileCollectionResponse names every uploaded file in request order.
type FileCollectionResponse struct {
	ArrayFiles []string `json:"array_files"`
}

// FileCollection requires a list of uploads named array_files.
func FileCollection(opts ...rest.OperationOption) rest.ApiOption {
	opts = append(
		opts,
		rest.OperationID("uploadFileCollection"),
		rest.FileParam("array_files", param.Map()),
	)

	return rest.Operation(
		http.MethodPost,
		rest.BasePath("/file").Segment("collection"),
		rest.ProduceJson(rest.ProducerFunc[FileCollectionResponse](fileCollection)),
		opts...,
	)
}

func fileCollection(ctx context.Context) (*FileCollectionResponse, error) {
	f, _ := rest.FetcherFrom(ctx)
	files, err := f.Files("array_files")
	if err != nil {
		return nil, err
	}

	names := make([]string, len(files))
	for i, file := range files {
		names[i] = file.Filename()
	}
	return &FileCollectionResponse{ArrayFiles: names}, nil
}

// ImageCollectionResponse names every uploaded image. Uploads which are
// not images are reported by the default value instead.
type ImageCollectionResponse struct {
	ArrayImages []string `json:"array_images"`
}

// ImageCollection accepts a list of image uploads named array_images.
func ImageCollection(opts ...rest.OperationOption) rest.ApiOption {
	opts = append(
		opts,
		rest.OperationID("uploadImageCollection"),
		rest.FileParam(
			"array_images",
			param.Image(),
			param.Map(),
			param.Strict(false),
			param.Default("NotAnImage"),
		),
	)

	return rest.Operation(
		http.MethodPost,
		rest.BasePath("/image").Segment("collection"),
		rest.ProduceJson(rest.ProducerFunc[ImageCollectionResponse](imageCollection)),
		opts...,
	)
}

func imageCollection(ctx context.Context) (*ImageCollectionResponse, error) {
	f, _ := rest.FetcherFrom(ctx)
	v, err := f.Get("array_images")
	if err != nil {
		return nil, err
	}

	items, ok := v.([]any)
	if !ok {
		items = []any{v}
	}
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = fileName(item)
	}
	return &ImageCollectionResponse{ArrayImages: names}, nil
}

func fileName(v any) string {
	switch x := v.(type) {
	case param.File:
		return x.Filename()
	case string:
		return x
	default:
		return ""
	}
}
