// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// levelFilter drops records below the minimum severity configured for
// the longest matching logger name prefix. Loggers without a matching
// prefix are not filtered.
type levelFilter struct {
	sdklog.Processor

	prefixes []string
	levels   map[string]log.Severity
}

func newLevelFilter(inner sdklog.Processor, levels map[string]string) *levelFilter {
	f := &levelFilter{
		Processor: inner,
		levels:    make(map[string]log.Severity, len(levels)),
	}
	for name, level := range levels {
		f.levels[name] = parseLevel(level)
		f.prefixes = append(f.prefixes, name)
	}
	slices.SortFunc(f.prefixes, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})
	return f
}

func parseLevel(level string) log.Severity {
	switch strings.ToLower(level) {
	case "info":
		return log.SeverityInfo
	case "warn", "warning":
		return log.SeverityWarn
	case "error":
		return log.SeverityError
	default:
		return log.SeverityDebug
	}
}

// OnEmit implements sdklog.Processor.
func (f *levelFilter) OnEmit(ctx context.Context, record *sdklog.Record) error {
	if !f.allows(record.InstrumentationScope().Name, record.Severity()) {
		return nil
	}
	return f.Processor.OnEmit(ctx, record)
}

func (f *levelFilter) allows(logger string, sev log.Severity) bool {
	for _, prefix := range f.prefixes {
		if strings.HasPrefix(logger, prefix) {
			return sev >= f.levels[prefix]
		}
	}
	return true
}
