// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"errors"

	"github.com/z5labs/restkit/param"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/z5labs/restkit/rest"
)

// metricsRecorder holds OTel metric instruments for tracking rejected
// request parameters.
type metricsRecorder struct {
	violations metric.Int64Counter
	conflicts  metric.Int64Counter
}

func newMetricsRecorder() (*metricsRecorder, error) {
	meter := otel.GetMeterProvider().Meter(meterName)

	violations, err := meter.Int64Counter(
		"rest.param.violations",
		metric.WithDescription("Total number of request parameters which failed validation"),
		metric.WithUnit("{parameter}"),
	)
	if err != nil {
		return nil, err
	}

	conflicts, err := meter.Int64Counter(
		"rest.param.conflicts",
		metric.WithDescription("Total number of incompatible request parameters sent together"),
		metric.WithUnit("{conflict}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsRecorder{
		violations: violations,
		conflicts:  conflicts,
	}, nil
}

func (m *metricsRecorder) recordFailures(ctx context.Context, operationID string, err error) {
	attrs := metric.WithAttributes(attribute.String("operation", operationID))

	var verr *param.ValidationError
	if errors.As(err, &verr) {
		m.violations.Add(ctx, int64(len(verr.Violations)), attrs)
	}

	if n := len(conflictErrors(err)); n > 0 {
		m.conflicts.Add(ctx, int64(n), attrs)
	}
}

// conflictErrors collects every [param.ConflictError] in the tree of err.
func conflictErrors(err error) []*param.ConflictError {
	switch e := err.(type) {
	case nil:
		return nil
	case *param.ConflictError:
		return []*param.ConflictError{e}
	case interface{ Unwrap() []error }:
		var cs []*param.ConflictError
		for _, inner := range e.Unwrap() {
			cs = append(cs, conflictErrors(inner)...)
		}
		return cs
	case interface{ Unwrap() error }:
		return conflictErrors(e.Unwrap())
	default:
		return nil
	}
}
