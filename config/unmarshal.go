// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"context"
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"
)

// UnmarshalYAML decodes the YAML document provided by r into a T.
func UnmarshalYAML[T any](r Reader[io.Reader]) Reader[T] {
	return Map(r, func(ctx context.Context, rd io.Reader) (T, error) {
		var v T
		err := yaml.NewDecoder(rd).Decode(&v)
		if err == io.EOF {
			return v, nil
		}
		return v, err
	})
}

// UnmarshalJSON decodes the JSON document provided by r into a T.
func UnmarshalJSON[T any](r Reader[io.Reader]) Reader[T] {
	return Map(r, func(ctx context.Context, rd io.Reader) (T, error) {
		var v T
		err := json.NewDecoder(rd).Decode(&v)
		if err == io.EOF {
			return v, nil
		}
		return v, err
	})
}
