// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package app

import (
	"context"
	"errors"
)

// HookFunc runs once the application runtime has returned.
type HookFunc func(context.Context) error

// HookRegistry collects post run hooks while an application is built.
type HookRegistry struct {
	hooks []HookFunc
}

// OnPostRun registers hook. Hooks run in registration order.
func (r *HookRegistry) OnPostRun(hook HookFunc) {
	r.hooks = append(r.hooks, hook)
}

type hookRuntime struct {
	inner Runtime
	hooks []HookFunc
}

// Run always runs every hook, even when the inner runtime or an earlier
// hook fails. All errors are joined.
func (rt hookRuntime) Run(ctx context.Context) error {
	errs := []error{rt.inner.Run(ctx)}
	for _, hook := range rt.hooks {
		errs = append(errs, hook(ctx))
	}
	return errors.Join(errs...)
}

// WithHooks lets f register cleanup for the resources it opens, right
// next to where they are opened.
//
//	app.WithHooks(func(ctx context.Context, h *app.HookRegistry) (app.Runtime, error) {
//		f, err := os.Open("params.yaml")
//		if err != nil {
//			return nil, err
//		}
//		h.OnPostRun(func(context.Context) error {
//			return f.Close()
//		})
//		return newServer(f)
//	})
func WithHooks[T Runtime](f func(context.Context, *HookRegistry) (T, error)) Builder[Runtime] {
	return BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
		reg := &HookRegistry{}

		inner, err := f(ctx, reg)
		if err != nil {
			return nil, err
		}
		return hookRuntime{inner: inner, hooks: reg.hooks}, nil
	})
}
