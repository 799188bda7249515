// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package endpoint implements the routes of the param fetcher example.
package endpoint

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/z5labs/restkit"
	"github.com/z5labs/restkit/param"
	"github.com/z5labs/restkit/rest"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Params is every resolved parameter keyed by name.
type Params map[string]any

type paramsHandler struct {
	tracer trace.Tracer
	log    *slog.Logger
}

// ListParams returns every declared parameter of the request.
//
// raw and map only accept the labeled choices and fall back to their
// defaults otherwise, bar must match the %bar% placeholder and baz can not
// be combined with foz.
func ListParams(opts ...rest.OperationOption) rest.ApiOption {
	h := &paramsHandler{
		tracer: otel.Tracer("github.com/z5labs/restkit/example/paramfetcher/endpoint"),
		log:    restkit.Logger("github.com/z5labs/restkit/example/paramfetcher/endpoint"),
	}

	opts = append(
		opts,
		rest.OperationID("listParams"),
		rest.Summary("List every resolved parameter"),
		rest.RequestParam(
			"raw",
			param.IdenticalTo(param.Choice("foo", "raw"), param.Choice("bar", "foo")),
			param.Default("invalid"),
			param.Strict(false),
		),
		rest.RequestParam(
			"map",
			param.Map(),
			param.IdenticalTo(param.Choice("foo", "map"), param.Choice("foobar", "foo")),
			param.Default("%invalid2% %%"),
			param.Strict(false),
		),
		rest.RequestParam("bar", param.Nullable(), param.Requirements(`%bar%\ foo`)),
		rest.QueryParam("foz", param.Requirements(`[a-z]+`)),
		rest.QueryParam("baz", param.Requirements(`[a-z]+`), param.IncompatibleWith("foz")),
	)

	return rest.Operation(
		http.MethodPost,
		rest.BasePath("/params"),
		rest.ProduceJson[Params](h),
		opts...,
	)
}

func (h *paramsHandler) Produce(ctx context.Context) (*Params, error) {
	spanCtx, span := h.tracer.Start(ctx, "paramsHandler.Produce")
	defer span.End()

	f, _ := rest.FetcherFrom(spanCtx)
	all, err := f.All()
	if err != nil {
		h.log.WarnContext(spanCtx, "rejecting request parameters", slog.Any("error", err))
		return nil, err
	}

	p := Params(all)
	return &p, nil
}

// DefaultsResponse shows how the same fetcher resolves with and without
// strict validation.
type DefaultsResponse struct {
	Strict  Params `json:"strict"`
	Lenient Params `json:"lenient"`
}

// Defaults demonstrates placeholder defaults: bar defaults to whatever foo
// resolved to.
func Defaults(opts ...rest.OperationOption) rest.ApiOption {
	opts = append(
		opts,
		rest.OperationID("paramDefaults"),
		rest.QueryParam("foo", param.Default("invalid")),
		rest.RequestParam("bar", param.Default("%foo%")),
	)

	return rest.Operation(
		http.MethodGet,
		rest.BasePath("/params").Segment("test"),
		rest.ProduceJson(rest.ProducerFunc[DefaultsResponse](defaults)),
		opts...,
	)
}

func defaults(ctx context.Context) (*DefaultsResponse, error) {
	f, _ := rest.FetcherFrom(ctx)

	strict, err := f.All()
	if err != nil {
		return nil, err
	}
	lenient, err := f.All(param.WithStrict(false))
	if err != nil {
		return nil, err
	}
	return &DefaultsResponse{
		Strict:  strict,
		Lenient: lenient,
	}, nil
}
