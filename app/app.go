// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package app composes and runs restkit applications.
//
// An application is described by a [Builder] which produces a [Runtime].
// Builders compose with [Bind] so that configuration readers, the OTel
// SDK and the HTTP server can be layered on top of each other before a
// single call to [Run].
package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Builder constructs a T, typically a [Runtime] or one of its dependencies.
type Builder[T any] interface {
	Build(context.Context) (T, error)
}

// BuilderFunc is a func implementation of [Builder].
type BuilderFunc[T any] func(context.Context) (T, error)

// Build implements the [Builder] interface.
func (f BuilderFunc[T]) Build(ctx context.Context) (T, error) {
	return f(ctx)
}

// Build is shorthand for converting f into a [BuilderFunc].
func Build[T any](f func(context.Context) (T, error)) Builder[T] {
	return BuilderFunc[T](f)
}

// Bind feeds the value built by b into binder and builds the result.
func Bind[A, B any](b Builder[A], binder func(A) Builder[B]) Builder[B] {
	return BuilderFunc[B](func(ctx context.Context) (B, error) {
		a, err := b.Build(ctx)
		if err != nil {
			var zero B
			return zero, err
		}
		return binder(a).Build(ctx)
	})
}

// Runtime is a long running application.
type Runtime interface {
	Run(context.Context) error
}

// RuntimeFunc is a func implementation of [Runtime].
type RuntimeFunc func(context.Context) error

// Run implements the [Runtime] interface.
func (f RuntimeFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Run builds the runtime and runs it until it returns or the process
// receives an interrupt or termination signal.
func Run[T Runtime](ctx context.Context, b Builder[T]) error {
	sigCtx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := b.Build(sigCtx)
	if err != nil {
		return err
	}
	return rt.Run(sigCtx)
}

// LogError reports a non-nil error returned by [Run].
//
// The handler is passed in explicitly since the global OTel log provider
// has already been shut down by the time Run returns.
func LogError(handler slog.Handler, err error) {
	if err == nil {
		return
	}
	slog.New(handler).Error("application failed", slog.Any("error", err))
}
