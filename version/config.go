// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package version

import "fmt"

// Resolver names accepted in [Config.GuessingOrder].
const (
	QueryResolverName        = "query"
	CustomHeaderResolverName = "custom_header"
	MediaTypeResolverName    = "media_type"
)

// Config describes how versions are resolved.
type Config struct {
	DefaultVersion string `yaml:"default_version" json:"default_version"`

	Resolvers struct {
		Query struct {
			Disabled      bool   `yaml:"disabled" json:"disabled"`
			ParameterName string `yaml:"parameter_name" json:"parameter_name"`
		} `yaml:"query" json:"query"`

		CustomHeader struct {
			Disabled   bool   `yaml:"disabled" json:"disabled"`
			HeaderName string `yaml:"header_name" json:"header_name"`
		} `yaml:"custom_header" json:"custom_header"`

		MediaType struct {
			Disabled bool   `yaml:"disabled" json:"disabled"`
			Regex    string `yaml:"regex" json:"regex"`
		} `yaml:"media_type" json:"media_type"`
	} `yaml:"resolvers" json:"resolvers"`

	// GuessingOrder lists resolver names in the order they are tried.
	// Defaults to query, custom_header and media_type.
	GuessingOrder []string `yaml:"guessing_order" json:"guessing_order"`
}

// Resolver builds the [Resolver] described by the config.
func (c Config) Resolver() (Resolver, error) {
	order := c.GuessingOrder
	if len(order) == 0 {
		order = []string{QueryResolverName, CustomHeaderResolverName, MediaTypeResolverName}
	}

	rs := make([]Resolver, 0, len(order))
	for _, name := range order {
		switch name {
		case QueryResolverName:
			if c.Resolvers.Query.Disabled {
				continue
			}
			rs = append(rs, QueryParameter(c.Resolvers.Query.ParameterName))
		case CustomHeaderResolverName:
			if c.Resolvers.CustomHeader.Disabled {
				continue
			}
			rs = append(rs, Header(c.Resolvers.CustomHeader.HeaderName))
		case MediaTypeResolverName:
			if c.Resolvers.MediaType.Disabled {
				continue
			}
			r, err := MediaType(c.Resolvers.MediaType.Regex)
			if err != nil {
				return nil, err
			}
			rs = append(rs, r)
		default:
			return nil, fmt.Errorf("version: unknown resolver %q in guessing order", name)
		}
	}
	return Or(Chain(rs...), c.DefaultVersion), nil
}
