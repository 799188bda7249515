// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package config provides composable, lazily evaluated configuration values.
//
// Every configuration value is a [Reader]. Readers are cheap to construct and
// only do work when read, which allows defaults, environment overrides and
// whole documents to be layered together before anything is evaluated:
//
//	port := config.Default(8080, config.IntFromString(config.Env("HTTP_PORT")))
//	n := config.MustOr(ctx, 8080, port)
package config

import (
	"context"
	"fmt"
)

// Value is the result of reading a [Reader]. A Value may be empty, which
// means the Reader had nothing to provide, as opposed to failing.
type Value[T any] struct {
	v   T
	set bool
}

// ValueOf returns a non-empty [Value] holding v.
func ValueOf[T any](v T) Value[T] {
	return Value[T]{v: v, set: true}
}

// Value returns the underlying value and whether it was set.
func (v Value[T]) Value() (T, bool) {
	return v.v, v.set
}

// Reader produces a configuration value on demand.
type Reader[T any] interface {
	Read(context.Context) (Value[T], error)
}

// ReaderFunc is a func type of the [Reader] interface.
type ReaderFunc[T any] func(context.Context) (Value[T], error)

// Read implements the [Reader] interface.
func (f ReaderFunc[T]) Read(ctx context.Context) (Value[T], error) {
	return f(ctx)
}

// ReaderOf returns a [Reader] which always provides v.
func ReaderOf[T any](v T) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		return ValueOf(v), nil
	})
}

// EmptyReader returns a [Reader] which never provides a value.
func EmptyReader[T any]() Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		return Value[T]{}, nil
	})
}

// Default returns a [Reader] which provides def whenever r is empty.
func Default[T any](def T, r Reader[T]) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		v, err := r.Read(ctx)
		if err != nil {
			return Value[T]{}, err
		}
		if v.set {
			return v, nil
		}
		return ValueOf(def), nil
	})
}

// Or returns the first non-empty value from the given readers.
func Or[T any](rs ...Reader[T]) Reader[T] {
	return ReaderFunc[T](func(ctx context.Context) (Value[T], error) {
		for _, r := range rs {
			v, err := r.Read(ctx)
			if err != nil {
				return Value[T]{}, err
			}
			if v.set {
				return v, nil
			}
		}
		return Value[T]{}, nil
	})
}

// Map transforms a non-empty value of r with f. Empty values stay empty.
func Map[A, B any](r Reader[A], f func(context.Context, A) (B, error)) Reader[B] {
	return ReaderFunc[B](func(ctx context.Context) (Value[B], error) {
		a, err := r.Read(ctx)
		if err != nil {
			return Value[B]{}, err
		}
		if !a.set {
			return Value[B]{}, nil
		}

		b, err := f(ctx, a.v)
		if err != nil {
			return Value[B]{}, err
		}
		return ValueOf(b), nil
	})
}

// EmptyValueError is returned by [Read] when a [Reader] produced no value.
type EmptyValueError struct{}

func (EmptyValueError) Error() string {
	return "config: reader returned an empty value"
}

// Read reads r and requires the result to be non-empty.
func Read[T any](ctx context.Context, r Reader[T]) (T, error) {
	v, err := r.Read(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	if !v.set {
		var zero T
		return zero, EmptyValueError{}
	}
	return v.v, nil
}

// Must is like [Read] but panics instead of returning an error.
func Must[T any](ctx context.Context, r Reader[T]) T {
	v, err := Read(ctx, r)
	if err != nil {
		panic(fmt.Errorf("config: must read value: %w", err))
	}
	return v
}

// MustOr returns def when r is empty and panics if r fails.
func MustOr[T any](ctx context.Context, def T, r Reader[T]) T {
	return Must(ctx, Default(def, r))
}
