// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app wires the param fetcher example together.
package app

import (
	"context"
	"net/http"

	"github.com/z5labs/restkit/example/paramfetcher/endpoint"
	httpserver "github.com/z5labs/restkit/http"
	"github.com/z5labs/restkit/otel"
	"github.com/z5labs/restkit/param"
	"github.com/z5labs/restkit/rest"
	"github.com/z5labs/restkit/version"
)

// Config is the example's config.yaml document.
type Config struct {
	OpenApi struct {
		Title   string `yaml:"title"`
		Version string `yaml:"version"`
	} `yaml:"openapi"`

	// Parameters fills %name% placeholders in parameter defaults and
	// requirements.
	Parameters param.Parameters `yaml:"parameters"`

	// ProblemType is the base URI of problem detail types.
	ProblemType string `yaml:"problem_type"`

	Versioning version.Config    `yaml:"versioning"`
	HTTP       httpserver.Config `yaml:"http"`
	OTel       otel.Config       `yaml:"otel"`
}

// Init builds the example [rest.Api]. Extra opts are applied after the
// endpoints.
func Init(ctx context.Context, cfg Config, opts ...rest.ApiOption) (http.Handler, error) {
	versions, err := cfg.Versioning.Resolver()
	if err != nil {
		return nil, err
	}

	problemOpts := []rest.ProblemDetailsOption{}
	if cfg.ProblemType != "" {
		problemOpts = append(problemOpts, rest.WithDefaultType(cfg.ProblemType))
	}
	problems := rest.NewProblemDetailsErrorHandler(problemOpts...)

	common := func() []rest.OperationOption {
		return []rest.OperationOption{
			rest.Parameters(cfg.Parameters),
			rest.OnError(problems),
		}
	}

	apiOpts := []rest.ApiOption{
		rest.Versioning(versions),
		endpoint.ListParams(common()...),
		endpoint.Defaults(common()...),
		endpoint.SingleFile(common()...),
		endpoint.FileCollection(common()...),
		endpoint.ImageCollection(common()...),
	}
	api := rest.NewApi(cfg.OpenApi.Title, cfg.OpenApi.Version, append(apiOpts, opts...)...)
	return api, nil
}
