// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/z5labs/restkit/param"
)

// HttpResponseWriter is implemented by errors which know their own HTTP
// response. The default [ErrorHandler] defers to it.
type HttpResponseWriter interface {
	WriteHttpResponse(context.Context, http.ResponseWriter)
}

// ErrorHandler turns an operation error into a response.
// Configure one per operation with [OnError].
type ErrorHandler interface {
	OnError(context.Context, http.ResponseWriter, error)
}

// ErrorHandlerFunc is a function adapter that implements [ErrorHandler].
type ErrorHandlerFunc func(context.Context, http.ResponseWriter, error)

// OnError implements the [ErrorHandler] interface.
func (f ErrorHandlerFunc) OnError(ctx context.Context, w http.ResponseWriter, err error) {
	f(ctx, w, err)
}

// defaultErrorHandler only writes a status code. Errors implementing
// [HttpResponseWriter] pick their own, everything else is a 500.
func defaultErrorHandler(h slog.Handler) ErrorHandlerFunc {
	log := slog.New(h)

	return func(ctx context.Context, w http.ResponseWriter, err error) {
		logOperationError(ctx, log, err)

		var hrw HttpResponseWriter
		if errors.As(err, &hrw) {
			hrw.WriteHttpResponse(ctx, w)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// logOperationError logs client errors at warn level, naming the rejected
// parameters, and everything else at error level.
func logOperationError(ctx context.Context, log *slog.Logger, err error, attrs ...slog.Attr) {
	attrs = append(attrs, slog.Any("error", err))

	var badRequest BadRequestError
	if !errors.As(err, &badRequest) {
		log.LogAttrs(ctx, slog.LevelError, "sending error response", attrs...)
		return
	}

	var verr *param.ValidationError
	if errors.As(badRequest.Cause, &verr) {
		attrs = append(attrs, slog.Any("params", verr.Params()))
	}
	for _, c := range conflictErrors(badRequest.Cause) {
		attrs = append(attrs, slog.Group("conflict", slog.String("param", c.Param), slog.String("other", c.Other)))
	}
	log.LogAttrs(ctx, slog.LevelWarn, "rejecting request", attrs...)
}

// BadRequestError marks err as the client's fault. Operations wrap every
// [param.ValidationError] and [param.ConflictError], as well as malformed
// request bodies, in a BadRequestError.
type BadRequestError struct {
	Cause error
}

func (e BadRequestError) Error() string {
	return fmt.Sprintf("bad request error: %v", e.Cause)
}

func (e BadRequestError) Unwrap() error {
	return e.Cause
}

// WriteHttpResponse implements [HttpResponseWriter].
func (e BadRequestError) WriteHttpResponse(ctx context.Context, rw http.ResponseWriter) {
	rw.WriteHeader(http.StatusBadRequest)
}

// InvalidContentTypeError is returned when a request body is not of the
// content type an operation consumes.
type InvalidContentTypeError struct {
	ContentType string
}

func (e InvalidContentTypeError) Error() string {
	return fmt.Sprintf("invalid content type: %q", e.ContentType)
}
