// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package otel

import (
	"fmt"
	"time"
)

// ExporterType selects where a signal is exported to.
type ExporterType string

const (
	// NoneExporter discards everything.
	NoneExporter ExporterType = "none"

	// StdoutExporter writes the signal as JSON to stdout.
	StdoutExporter ExporterType = "stdout"

	// OTLPExporter sends the signal to an OTLP collector.
	OTLPExporter ExporterType = "otlp"
)

// Protocol is the OTLP transport.
type Protocol string

const (
	GRPC Protocol = "grpc"
	HTTP Protocol = "http"
)

// OTLP locates a collector.
type OTLP struct {
	Protocol Protocol `yaml:"protocol" json:"protocol"`
	Target   string   `yaml:"target" json:"target"`
}

// Exporter configures the exporter of a single signal.
// The zero value disables export.
type Exporter struct {
	Type ExporterType `yaml:"type" json:"type"`
	OTLP OTLP         `yaml:"otlp" json:"otlp"`
}

// Trace configures the tracer provider.
type Trace struct {
	Exporter Exporter `yaml:"exporter" json:"exporter"`

	// SampleRatio defaults to 1 when unset.
	SampleRatio  *float64     `yaml:"sample_ratio" json:"sample_ratio"`
	BatchTimeout time.Duration `yaml:"batch_timeout" json:"batch_timeout"`
}

// Metric configures the meter provider.
type Metric struct {
	Exporter Exporter      `yaml:"exporter" json:"exporter"`
	Interval time.Duration `yaml:"interval" json:"interval"`

	// Runtime enables the Go runtime metrics.
	Runtime bool `yaml:"runtime" json:"runtime"`
}

// Log configures the logger provider.
type Log struct {
	Exporter Exporter `yaml:"exporter" json:"exporter"`

	// Levels maps logger name prefixes to a minimum level:
	// debug, info, warn or error.
	Levels map[string]string `yaml:"levels" json:"levels"`
}

// Config is the complete OpenTelemetry SDK configuration.
type Config struct {
	ServiceName    string `yaml:"service_name" json:"service_name"`
	ServiceVersion string `yaml:"service_version" json:"service_version"`

	Trace  Trace  `yaml:"trace" json:"trace"`
	Metric Metric `yaml:"metric" json:"metric"`
	Log    Log    `yaml:"log" json:"log"`
}

// UnknownExporterTypeError is returned for an exporter type a signal
// does not support.
type UnknownExporterTypeError struct {
	Signal string
	Type   ExporterType
}

func (e UnknownExporterTypeError) Error() string {
	return fmt.Sprintf("unknown %s exporter type: %q", e.Signal, e.Type)
}

// UnknownProtocolError is returned for an OTLP protocol other than grpc or http.
type UnknownProtocolError struct {
	Protocol Protocol
}

func (e UnknownProtocolError) Error() string {
	return fmt.Sprintf("unknown otlp protocol: %q", e.Protocol)
}
