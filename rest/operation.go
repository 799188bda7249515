// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/z5labs/restkit"
	"github.com/z5labs/restkit/param"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/openapi-go/openapi3"
	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OperationOptions holds configuration for an HTTP operation registered with [Operation].
// This includes the declared request parameters, how they are read and
// error handling.
type OperationOptions struct {
	id          string
	summary     string
	defs        []param.Definition
	params      param.Parameters
	force       bool
	requestOpts []param.RequestOption
	errHandler  ErrorHandler
}

// OperationOption configures an operation created by [Operation].
// Common implementations include parameter declarations ([QueryParam],
// [RequestParam], [FileParam]) and [OnError] for custom error handling.
type OperationOption func(*OperationOptions)

// OnError configures a custom [ErrorHandler] for an operation.
// If not specified, operations use a default error handler that logs errors
// and returns appropriate HTTP status codes.
//
// Example:
//
//	customErrorHandler := rest.ErrorHandlerFunc(func(ctx context.Context, w http.ResponseWriter, err error) {
//	    log.Printf("Error: %v", err)
//	    w.WriteHeader(http.StatusInternalServerError)
//	})
//	rest.Operation(http.MethodGet, rest.BasePath("/users"), handler, rest.OnError(customErrorHandler))
func OnError(eh ErrorHandler) OperationOption {
	return func(oo *OperationOptions) {
		oo.errHandler = eh
	}
}

// OperationID sets the OpenAPI operation id. It is also given to
// [param.Fetcher.SetController] for every request.
func OperationID(id string) OperationOption {
	return func(oo *OperationOptions) {
		oo.id = id
	}
}

// Summary sets the OpenAPI summary of the operation.
func Summary(s string) OperationOption {
	return func(oo *OperationOptions) {
		oo.summary = s
	}
}

// Handler represents a RPC style implementation of the core
// logic for your [http.Handler].
type Handler[Req, Resp any] interface {
	Handle(context.Context, *Req) (*Resp, error)
}

// HandlerFunc is an adapter to allow the use of ordinary functions
// as [Handler]s.
type HandlerFunc[Req, Resp any] func(context.Context, *Req) (*Resp, error)

// Handle implements the [Handler] interface.
func (f HandlerFunc[Req, Resp]) Handle(ctx context.Context, req *Req) (*Resp, error) {
	return f(ctx, req)
}

// RequestReader is meant to be implemented by any type which knows how
// unmarshal itself from a [http.Request].
type RequestReader[T any] interface {
	*T

	ReadRequest(context.Context, *http.Request) error
}

// TypedRequest is a [RequestReader] which also provides a OpenAPI 3.0
// spec for itself.
type TypedRequest[T any] interface {
	RequestReader[T]

	Spec() (openapi3.RequestBodyOrRef, error)
}

// ResponseWriter is meant to be implemented by any type which knows how
// to marshal itself into a HTTP response.
type ResponseWriter[T any] interface {
	*T

	WriteResponse(context.Context, http.ResponseWriter) error
}

// TypedResponse is a [ResponseWriter] which also provides a OpenAPI 3.0
// spec for itself.
type TypedResponse[T any] interface {
	ResponseWriter[T]

	Spec() (int, openapi3.ResponseOrRef, error)
}

type operation[I, O any, Req TypedRequest[I], Resp TypedResponse[O]] struct {
	id          string
	tracer      trace.Tracer
	metrics     *metricsRecorder
	errHandler  ErrorHandler
	registry    *param.Registry
	force       bool
	requestOpts []param.RequestOption
	handler     Handler[I, O]
}

// Operation registers an HTTP operation (endpoint) with an [Api].
//
// Request parameters declared with [QueryParam], [RequestParam] and
// [FileParam] are compiled into a [param.Registry] once, at registration,
// and a [param.Fetcher] is created for every request. Handlers read the
// parameters through [FetcherFrom] or [ParamValue].
//
// Operation panics if the declared parameters are invalid or the OpenAPI
// operation cannot be built, since both are programming errors.
//
// Example:
//
//	rest.Operation(
//	    http.MethodGet,
//	    rest.BasePath("/books"),
//	    rest.ProduceJson(listBooks),
//	    rest.QueryParam("page", param.Requirements(`\d+`), param.Default("1")),
//	    rest.QueryParam("sort", param.IdenticalTo(param.Choice("asc", "asc"), param.Choice("desc", "desc"))),
//	)
func Operation[I, O any, Req TypedRequest[I], Resp TypedResponse[O]](method string, path Path, h Handler[I, O], opts ...OperationOption) ApiOption {
	return apiOptionFunc(func(ao *ApiOptions) {
		oo := &OperationOptions{
			errHandler: defaultErrorHandler(restkit.LogHandler("github.com/z5labs/restkit/rest")),
		}
		for _, opt := range opts {
			opt(oo)
		}

		registry, err := param.NewRegistry(oo.defs, param.WithParameters(oo.params))
		if err != nil {
			panic(err)
		}

		var req Req
		requestBodySpec, err := req.Spec()
		if err != nil {
			panic(err)
		}
		if requestBodySpec.RequestBody == nil {
			requestBodySpec = requestBodyParameters(registry)
		}

		var resp Resp
		status, respSpec, err := resp.Spec()
		if err != nil {
			panic(err)
		}

		responses := map[string]openapi3.ResponseOrRef{
			strconv.Itoa(status): respSpec,
		}
		if registry.Len() > 0 {
			responses[strconv.Itoa(http.StatusBadRequest)] = problemResponseSpec("Invalid request parameters")
		}

		op := openapi3.Operation{
			Parameters: append(path.parameters(), queryParameters(registry)...),
			Responses: openapi3.Responses{
				MapOfResponseOrRefValues: responses,
			},
		}
		if requestBodySpec.RequestBody != nil {
			op.RequestBody = &requestBodySpec
		}
		if oo.id != "" {
			op.ID = &oo.id
		}
		if oo.summary != "" {
			op.Summary = &oo.summary
		}

		endpoint := path.String()

		err = ao.def.AddOperation(method, endpoint, op)
		if err != nil {
			panic(err)
		}

		id := oo.id
		if id == "" {
			id = method + " " + endpoint
		}

		requestOpts := oo.requestOpts
		if !readsBody(registry) {
			requestOpts = append([]param.RequestOption{param.SkipBody()}, requestOpts...)
		}

		metrics, err := newMetricsRecorder()
		if err != nil {
			panic(err)
		}

		opHandler := otelhttp.WithRouteTag(endpoint, &operation[I, O, Req, Resp]{
			id:          id,
			tracer:      otel.Tracer("github.com/z5labs/restkit/rest"),
			metrics:     metrics,
			errHandler:  oo.errHandler,
			registry:    registry,
			force:       oo.force,
			requestOpts: requestOpts,
			handler:     h,
		})
		ao.route(func(r chi.Router) {
			r.Method(method, endpoint, opHandler)
		})
	})
}

func (o *operation[I, O, Req, Resp]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	spanCtx, span := o.tracer.Start(r.Context(), "operation.ServeHTTP", trace.WithAttributes(
		attribute.String("rest.operation.id", o.id),
	))
	defer span.End()

	var err error
	defer func() {
		if err == nil {
			return
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		o.errHandler.OnError(spanCtx, w, err)
	}()
	defer try.Recover(&err)

	r, err = o.fetchParams(spanCtx, r)
	if err != nil {
		return
	}
	ctx := r.Context()

	req, err := o.readRequest(ctx, r)
	if err != nil {
		return
	}

	resp, err := o.handler.Handle(ctx, &req)
	if err != nil {
		err = o.paramError(ctx, err)
		return
	}

	err = o.writeResponse(ctx, w, resp)
}

// fetchParams attaches a [param.Fetcher] for the request to its context.
// Forced operations resolve every parameter up front so invalid requests
// never reach the handler.
func (o *operation[I, O, Req, Resp]) fetchParams(ctx context.Context, r *http.Request) (*http.Request, error) {
	spanCtx, span := o.tracer.Start(ctx, "operation.fetchParams")
	defer span.End()

	src, err := param.FromRequest(r, o.requestOpts...)
	if err != nil {
		return nil, BadRequestError{Cause: err}
	}

	f := param.NewFetcher(o.registry, src)
	f.SetController(o.id)

	err = f.Resolve(spanCtx)
	if err != nil {
		return nil, err
	}

	fctx := withFetcher(ctx, f)
	if !o.force {
		return r.WithContext(fctx), nil
	}

	values, err := f.All()
	if err != nil {
		return nil, o.paramError(spanCtx, err)
	}
	return r.WithContext(withParamValues(fctx, values)), nil
}

// paramError turns parameter failures into client errors and records them.
func (o *operation[I, O, Req, Resp]) paramError(ctx context.Context, err error) error {
	if !errors.Is(err, param.ErrValidation) {
		return err
	}

	o.metrics.recordFailures(ctx, o.id, err)

	var bre BadRequestError
	if errors.As(err, &bre) {
		return err
	}
	return BadRequestError{Cause: err}
}

func (o *operation[I, O, Req, Resp]) readRequest(ctx context.Context, r *http.Request) (I, error) {
	spanCtx, span := o.tracer.Start(ctx, "operation.readRequest")
	defer span.End()

	var req I
	err := Req(&req).ReadRequest(spanCtx, r)
	if err != nil {
		return req, err
	}

	return req, nil
}

func (o *operation[I, O, Req, Resp]) writeResponse(ctx context.Context, w http.ResponseWriter, resp *O) error {
	spanCtx, span := o.tracer.Start(ctx, "operation.writeResponse")
	defer span.End()

	return Resp(resp).WriteResponse(spanCtx, w)
}
