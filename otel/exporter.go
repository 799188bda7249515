// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"context"
	"errors"
	"io"

	"github.com/z5labs/restkit/concurrent"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutlog"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// exporters builds the exporters of all three signals. gRPC connections
// are shared between signals pointing at the same target.
type exporters struct {
	stdout io.Writer
	conns  *concurrent.Cache[string, *grpc.ClientConn]
	opened []*grpc.ClientConn
}

func newExporters(stdout io.Writer) *exporters {
	return &exporters{
		stdout: stdout,
		conns:  concurrent.NewCache[string, *grpc.ClientConn](),
	}
}

func (e *exporters) clientConn(cfg OTLP) (*grpc.ClientConn, error) {
	return e.conns.GetOr(cfg.Target, func() (*grpc.ClientConn, error) {
		cc, err := grpc.NewClient(
			cfg.Target,
			// TODO: support TLS transport credentials for grpc and http targets
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		if err != nil {
			return nil, err
		}
		e.opened = append(e.opened, cc)
		return cc, nil
	})
}

// Close closes every gRPC connection opened for the exporters.
func (e *exporters) Close() error {
	var errs []error
	for _, cc := range e.opened {
		errs = append(errs, cc.Close())
	}
	return errors.Join(errs...)
}

func (e *exporters) span(ctx context.Context, cfg Exporter) (sdktrace.SpanExporter, error) {
	switch cfg.Type {
	case "", NoneExporter:
		return nil, nil
	case StdoutExporter:
		return stdouttrace.New(stdouttrace.WithWriter(e.stdout))
	case OTLPExporter:
	default:
		return nil, UnknownExporterTypeError{Signal: "trace", Type: cfg.Type}
	}

	switch cfg.OTLP.Protocol {
	case GRPC:
		cc, err := e.clientConn(cfg.OTLP)
		if err != nil {
			return nil, err
		}
		return otlptracegrpc.New(ctx, otlptracegrpc.WithGRPCConn(cc))
	case HTTP:
		return otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.OTLP.Target), otlptracehttp.WithInsecure())
	default:
		return nil, UnknownProtocolError{Protocol: cfg.OTLP.Protocol}
	}
}

func (e *exporters) metric(ctx context.Context, cfg Exporter) (sdkmetric.Exporter, error) {
	switch cfg.Type {
	case "", NoneExporter:
		return nil, nil
	case StdoutExporter:
		return stdoutmetric.New(stdoutmetric.WithWriter(e.stdout))
	case OTLPExporter:
	default:
		return nil, UnknownExporterTypeError{Signal: "metric", Type: cfg.Type}
	}

	switch cfg.OTLP.Protocol {
	case GRPC:
		cc, err := e.clientConn(cfg.OTLP)
		if err != nil {
			return nil, err
		}
		return otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithGRPCConn(cc))
	case HTTP:
		return otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(cfg.OTLP.Target), otlpmetrichttp.WithInsecure())
	default:
		return nil, UnknownProtocolError{Protocol: cfg.OTLP.Protocol}
	}
}

func (e *exporters) log(ctx context.Context, cfg Exporter) (sdklog.Exporter, error) {
	switch cfg.Type {
	case "", NoneExporter:
		return nil, nil
	case StdoutExporter:
		return stdoutlog.New(stdoutlog.WithWriter(e.stdout))
	case OTLPExporter:
	default:
		return nil, UnknownExporterTypeError{Signal: "log", Type: cfg.Type}
	}

	switch cfg.OTLP.Protocol {
	case GRPC:
		cc, err := e.clientConn(cfg.OTLP)
		if err != nil {
			return nil, err
		}
		return otlploggrpc.New(ctx, otlploggrpc.WithGRPCConn(cc))
	case HTTP:
		return otlploghttp.New(ctx, otlploghttp.WithEndpoint(cfg.OTLP.Target), otlploghttp.WithInsecure())
	default:
		return nil, UnknownProtocolError{Protocol: cfg.OTLP.Protocol}
	}
}
