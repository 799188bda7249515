// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package restkit provides request parameter fetching and validation for
// REST APIs along with the logging shared by its packages.
package restkit

import (
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
)

// Logger returns a [slog.Logger] whose records are emitted through the
// global OpenTelemetry log provider.
func Logger(name string) *slog.Logger {
	return otelslog.NewLogger(name)
}

// LogHandler returns the [slog.Handler] behind [Logger].
func LogHandler(name string) slog.Handler {
	return otelslog.NewHandler(name)
}
