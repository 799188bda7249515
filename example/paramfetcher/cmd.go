// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/z5labs/restkit"
	"github.com/z5labs/restkit/app"
	"github.com/z5labs/restkit/config"
	paramfetcher "github.com/z5labs/restkit/example/paramfetcher/app"
	"github.com/z5labs/restkit/health"
	httpserver "github.com/z5labs/restkit/http"
	"github.com/z5labs/restkit/otel"
	"github.com/z5labs/restkit/rest"

	"github.com/spf13/cobra"
)

//go:embed config.yaml
var defaultConfig []byte

// configSource prefers the --config flag, then CONFIG_FILE and finally
// the embedded config.yaml.
func configSource(path string) config.Reader[io.Reader] {
	flag := config.ReaderFunc[string](func(ctx context.Context) (config.Value[string], error) {
		if path == "" {
			return config.Value[string]{}, nil
		}
		return config.ValueOf(path), nil
	})

	file := config.Map(config.Or(flag, config.Env("CONFIG_FILE")), func(ctx context.Context, name string) (io.Reader, error) {
		b, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(b), nil
	})

	return config.Or(file, config.ReaderOf[io.Reader](bytes.NewReader(defaultConfig)))
}

func newRootCommand() *cobra.Command {
	var configFile string

	readConfig := func(ctx context.Context) (paramfetcher.Config, error) {
		return config.Read(ctx, config.UnmarshalYAML[paramfetcher.Config](configSource(configFile)))
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the param fetcher API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd.Context())
			if err != nil {
				return err
			}

			rt := app.WithHooks(func(ctx context.Context, hooks *app.HookRegistry) (httpserver.App, error) {
				ready := &health.Binary{}
				api := app.Build(func(ctx context.Context) (http.Handler, error) {
					return paramfetcher.Init(ctx, cfg, rest.Readiness(ready))
				})

				srv, err := httpserver.Build(cfg.HTTP.Server(), api).Build(ctx)
				if err != nil {
					return httpserver.App{}, err
				}
				ready.MarkHealthy()

				hooks.OnPostRun(func(ctx context.Context) error {
					ready.MarkUnhealthy()
					restkit.Logger("github.com/z5labs/restkit/example/paramfetcher").InfoContext(ctx, "server stopped")
					return nil
				})
				return srv, nil
			})
			return app.Run(cmd.Context(), otel.Build(cfg.OTel, rt))
		},
	}

	openapi := &cobra.Command{
		Use:   "openapi",
		Short: "Write the OpenAPI schema of the API to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := readConfig(cmd.Context())
			if err != nil {
				return err
			}

			h, err := paramfetcher.Init(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			w := httptest.NewRecorder()
			r := httptest.NewRequestWithContext(cmd.Context(), http.MethodGet, "/openapi.json", nil)
			h.ServeHTTP(w, r)
			if w.Code != http.StatusOK {
				return fmt.Errorf("openapi schema request returned status %d", w.Code)
			}

			_, err = io.Copy(cmd.OutOrStdout(), w.Body)
			return err
		},
	}

	root := &cobra.Command{
		Use:           "paramfetcher",
		Short:         "Example API resolving request parameters",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML config file (default: $CONFIG_FILE or the embedded config)")
	root.AddCommand(serve, openapi)

	return root
}
