// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package restkit

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

type recordingProcessor struct {
	records []sdklog.Record
}

func (p *recordingProcessor) OnEmit(ctx context.Context, record *sdklog.Record) error {
	p.records = append(p.records, record.Clone())
	return nil
}

func (p *recordingProcessor) Shutdown(ctx context.Context) error   { return nil }
func (p *recordingProcessor) ForceFlush(ctx context.Context) error { return nil }

func setLoggerProvider(t *testing.T) *recordingProcessor {
	t.Helper()

	p := &recordingProcessor{}
	prev := global.GetLoggerProvider()
	global.SetLoggerProvider(sdklog.NewLoggerProvider(sdklog.WithProcessor(p)))
	t.Cleanup(func() { global.SetLoggerProvider(prev) })
	return p
}

func TestLogger(t *testing.T) {
	t.Run("will emit records through the global log provider", func(t *testing.T) {
		p := setLoggerProvider(t)

		Logger("github.com/z5labs/restkit/param").Warn("violation", slog.String("param", "page"))

		require.Len(t, p.records, 1)
		rec := p.records[0]
		require.Equal(t, "violation", rec.Body().AsString())
		require.Equal(t, log.SeverityWarn, rec.Severity())
		require.Equal(t, "github.com/z5labs/restkit/param", rec.InstrumentationScope().Name)

		attrs := map[string]string{}
		rec.WalkAttributes(func(kv log.KeyValue) bool {
			attrs[kv.Key] = kv.Value.AsString()
			return true
		})
		require.Equal(t, map[string]string{"param": "page"}, attrs)
	})
}

func TestLogHandler(t *testing.T) {
	t.Run("will be enabled for every level", func(t *testing.T) {
		setLoggerProvider(t)

		h := LogHandler("github.com/z5labs/restkit/rest")
		for _, level := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError} {
			require.True(t, h.Enabled(context.Background(), level))
		}
	})
}
