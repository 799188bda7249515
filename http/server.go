// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package http runs an [http.Handler], usually a rest.Api, as an app.Runtime.
package http

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/z5labs/restkit"
	"github.com/z5labs/restkit/app"
	"github.com/z5labs/restkit/config"

	"github.com/sourcegraph/conc/pool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TCPListener reads a TCP listener bound to Addr, ":8080" by default.
type TCPListener struct {
	Addr config.Reader[string]
}

// TCPListenerOption configures a [TCPListener].
type TCPListenerOption func(*TCPListener)

// Addr sets the "host:port" the listener binds to.
func Addr(addr config.Reader[string]) TCPListenerOption {
	return func(tcpLn *TCPListener) {
		tcpLn.Addr = addr
	}
}

// AddrFromEnv reads the listen address from HTTP_ADDR.
func AddrFromEnv() config.Reader[string] {
	return config.Env("HTTP_ADDR")
}

// NewTCPListener initializes a [TCPListener].
func NewTCPListener(opts ...TCPListenerOption) TCPListener {
	tcpLn := TCPListener{
		Addr: config.EmptyReader[string](),
	}
	for _, opt := range opts {
		opt(&tcpLn)
	}
	return tcpLn
}

// Read implements the [config.Reader] interface.
func (tcpLn TCPListener) Read(ctx context.Context) (config.Value[net.Listener], error) {
	addr := config.MustOr(ctx, ":8080", tcpLn.Addr)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return config.Value[net.Listener]{}, err
	}
	return config.ValueOf(ln), nil
}

// TLSListener wraps the listener read from ln with TLS.
func TLSListener(ln config.Reader[net.Listener], tlsConfig config.Reader[*tls.Config]) config.Reader[net.Listener] {
	return config.ReaderFunc[net.Listener](func(ctx context.Context) (config.Value[net.Listener], error) {
		base, err := config.Read(ctx, ln)
		if err != nil {
			return config.Value[net.Listener]{}, err
		}
		cfg, err := config.Read(ctx, tlsConfig)
		if err != nil {
			return config.Value[net.Listener]{}, errors.Join(err, base.Close())
		}
		return config.ValueOf(tls.NewListener(base, cfg)), nil
	})
}

// Server holds the settings of an [http.Server].
type Server struct {
	Listener          config.Reader[net.Listener]
	ReadTimeout       config.Reader[time.Duration]
	ReadHeaderTimeout config.Reader[time.Duration]
	WriteTimeout      config.Reader[time.Duration]
	IdleTimeout       config.Reader[time.Duration]
	MaxHeaderBytes    config.Reader[int]
}

// ServerOption configures a [Server].
type ServerOption func(*Server)

// ReadTimeout bounds reading a whole request. Defaults to 5s.
func ReadTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.ReadTimeout = d
	}
}

// ReadHeaderTimeout bounds reading request headers. Defaults to 2s.
func ReadHeaderTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.ReadHeaderTimeout = d
	}
}

// WriteTimeout bounds writing a response. Defaults to 10s.
func WriteTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.WriteTimeout = d
	}
}

// IdleTimeout bounds how long keep-alive connections stay open between
// requests. Defaults to 120s.
func IdleTimeout(d config.Reader[time.Duration]) ServerOption {
	return func(srv *Server) {
		srv.IdleTimeout = d
	}
}

// MaxHeaderBytes limits the size of request headers. Defaults to 1MB.
func MaxHeaderBytes(n config.Reader[int]) ServerOption {
	return func(srv *Server) {
		srv.MaxHeaderBytes = n
	}
}

// NewServer initializes a [Server] serving on listener.
func NewServer(listener config.Reader[net.Listener], opts ...ServerOption) Server {
	srv := Server{
		Listener:          listener,
		ReadTimeout:       config.EmptyReader[time.Duration](),
		ReadHeaderTimeout: config.EmptyReader[time.Duration](),
		WriteTimeout:      config.EmptyReader[time.Duration](),
		IdleTimeout:       config.EmptyReader[time.Duration](),
		MaxHeaderBytes:    config.EmptyReader[int](),
	}
	for _, opt := range opts {
		opt(&srv)
	}
	return srv
}

// Config is the document form of a [Server], as found in YAML config files.
// Zero fields fall back to the [Server] defaults.
type Config struct {
	Addr              string        `yaml:"addr" json:"addr"`
	ReadTimeout       time.Duration `yaml:"read_timeout" json:"read_timeout"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" json:"read_header_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout" json:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" json:"idle_timeout"`
	MaxHeaderBytes    int           `yaml:"max_header_bytes" json:"max_header_bytes"`
}

// Server converts cfg into a [Server] listening on TCP. Environment
// variables override the listen address.
func (cfg Config) Server() Server {
	return NewServer(
		NewTCPListener(Addr(config.Or(AddrFromEnv(), nonZero(cfg.Addr)))),
		ReadTimeout(nonZero(cfg.ReadTimeout)),
		ReadHeaderTimeout(nonZero(cfg.ReadHeaderTimeout)),
		WriteTimeout(nonZero(cfg.WriteTimeout)),
		IdleTimeout(nonZero(cfg.IdleTimeout)),
		MaxHeaderBytes(nonZero(cfg.MaxHeaderBytes)),
	)
}

func nonZero[T comparable](v T) config.Reader[T] {
	var zero T
	if v == zero {
		return config.EmptyReader[T]()
	}
	return config.ReaderOf(v)
}

// App serves HTTP until its context is cancelled.
type App struct {
	ls  net.Listener
	srv *http.Server
}

// Run serves on the listener and shuts the server down gracefully once
// ctx is cancelled.
func (a App) Run(ctx context.Context) error {
	p := pool.New().WithContext(ctx).WithCancelOnError()

	p.Go(func(ctx context.Context) error {
		return a.srv.Serve(a.ls)
	})

	p.Go(func(ctx context.Context) error {
		<-ctx.Done()
		return a.srv.Shutdown(context.WithoutCancel(ctx))
	})

	err := p.Wait()
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Build serves the handler produced by b with srv. Every request is traced
// with otelhttp and server errors are logged through restkit.Logger.
func Build(srv Server, b app.Builder[http.Handler]) app.Builder[App] {
	return app.Bind(b, func(h http.Handler) app.Builder[App] {
		return app.BuilderFunc[App](func(ctx context.Context) (App, error) {
			ln, err := config.Read(ctx, srv.Listener)
			if err != nil {
				return App{}, err
			}

			httpServer := &http.Server{
				Handler:           otelhttp.NewHandler(h, "restkit"),
				ReadTimeout:       config.MustOr(ctx, 5*time.Second, srv.ReadTimeout),
				ReadHeaderTimeout: config.MustOr(ctx, 2*time.Second, srv.ReadHeaderTimeout),
				WriteTimeout:      config.MustOr(ctx, 10*time.Second, srv.WriteTimeout),
				IdleTimeout:       config.MustOr(ctx, 120*time.Second, srv.IdleTimeout),
				MaxHeaderBytes:    config.MustOr(ctx, 1<<20, srv.MaxHeaderBytes),
				ErrorLog: slog.NewLogLogger(
					restkit.LogHandler("github.com/z5labs/restkit/http"),
					slog.LevelError,
				),
			}
			return App{ls: ln, srv: httpServer}, nil
		})
	})
}
