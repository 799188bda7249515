// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package otel installs the OpenTelemetry SDK for an application.
//
// [Build] wraps an [app.Builder] so that the tracer, meter and logger
// providers described by a [Config] are registered globally before the
// application is built and shut down once it stops running. Loggers
// returned by restkit.Logger and the instruments used by the rest package
// pick the providers up from the globals.
package otel

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/z5labs/restkit/app"

	"github.com/z5labs/sdk-go/try"
	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.38.0"
)

// Runtime runs an application with the SDK providers installed.
type Runtime struct {
	inner     app.Runtime
	shutdowns []func(context.Context) error
}

type buildOptions struct {
	stdout io.Writer
}

// BuildOption customizes [Build].
type BuildOption func(*buildOptions)

// Stdout sets where the stdout log exporter writes. Defaults to [os.Stdout].
func Stdout(w io.Writer) BuildOption {
	return func(bo *buildOptions) {
		bo.stdout = w
	}
}

// Build returns a builder which installs the providers configured by cfg
// and then builds the application with builder.
func Build[T app.Runtime](cfg Config, builder app.Builder[T], opts ...BuildOption) app.Builder[Runtime] {
	bo := &buildOptions{stdout: os.Stdout}
	for _, opt := range opts {
		opt(bo)
	}

	return app.BuilderFunc[Runtime](func(ctx context.Context) (Runtime, error) {
		rt, err := install(ctx, cfg, bo)
		if err != nil {
			return Runtime{}, err
		}

		inner, err := builder.Build(ctx)
		if err != nil {
			return Runtime{}, errors.Join(err, rt.shutdown(ctx))
		}
		rt.inner = inner
		return rt, nil
	})
}

func install(ctx context.Context, cfg Config, bo *buildOptions) (rt Runtime, err error) {
	rsc, err := resource.New(
		ctx,
		resource.WithTelemetrySDK(),
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return Runtime{}, err
	}

	exps := newExporters(bo.stdout)
	defer func() {
		if err != nil {
			err = errors.Join(err, exps.Close())
		}
	}()

	spanExp, err := exps.span(ctx, cfg.Trace.Exporter)
	if err != nil {
		return Runtime{}, err
	}
	metricExp, err := exps.metric(ctx, cfg.Metric.Exporter)
	if err != nil {
		return Runtime{}, err
	}
	logExp, err := exps.log(ctx, cfg.Log.Exporter)
	if err != nil {
		return Runtime{}, err
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.Baggage{},
		propagation.TraceContext{},
	))

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(rsc),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRatio(cfg.Trace)))),
	)
	if spanExp != nil {
		tp.RegisterSpanProcessor(sdktrace.NewBatchSpanProcessor(
			spanExp,
			sdktrace.WithBatchTimeout(orDefault(cfg.Trace.BatchTimeout, 5*time.Second)),
		))
	}
	otel.SetTracerProvider(tp)

	mpOpts := []sdkmetric.Option{sdkmetric.WithResource(rsc)}
	if metricExp != nil {
		mpOpts = append(mpOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(
			metricExp,
			sdkmetric.WithInterval(orDefault(cfg.Metric.Interval, time.Minute)),
		)))
	}
	mp := sdkmetric.NewMeterProvider(mpOpts...)
	otel.SetMeterProvider(mp)

	lpOpts := []sdklog.LoggerProviderOption{sdklog.WithResource(rsc)}
	if logExp != nil {
		var proc sdklog.Processor = sdklog.NewBatchProcessor(logExp)
		if cfg.Log.Exporter.Type == StdoutExporter {
			proc = sdklog.NewSimpleProcessor(logExp)
		}
		if len(cfg.Log.Levels) > 0 {
			proc = newLevelFilter(proc, cfg.Log.Levels)
		}
		lpOpts = append(lpOpts, sdklog.WithProcessor(proc))
	}
	lp := sdklog.NewLoggerProvider(lpOpts...)
	global.SetLoggerProvider(lp)

	if cfg.Metric.Runtime {
		err = runtime.Start(runtime.WithMeterProvider(mp))
		if err != nil {
			return Runtime{}, err
		}
	}

	rt = Runtime{
		shutdowns: []func(context.Context) error{
			tp.Shutdown,
			mp.Shutdown,
			lp.Shutdown,
			func(context.Context) error { return exps.Close() },
		},
	}
	return rt, nil
}

func sampleRatio(cfg Trace) float64 {
	if cfg.SampleRatio == nil {
		return 1
	}
	return *cfg.SampleRatio
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

// Run runs the application and shuts the providers down after it returns,
// flushing whatever telemetry is still buffered.
func (rt Runtime) Run(ctx context.Context) (err error) {
	defer try.Close(&err, closerFunc(func() error {
		return rt.shutdown(context.WithoutCancel(ctx))
	}))

	return rt.inner.Run(ctx)
}

func (rt Runtime) shutdown(ctx context.Context) error {
	var errs []error
	for _, f := range rt.shutdowns {
		errs = append(errs, f(ctx))
	}
	return errors.Join(errs...)
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}
