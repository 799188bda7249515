// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	t.Run("will return a configuration error", func(t *testing.T) {
		testCases := []struct {
			Name   string
			Defs   []Definition
			Params Parameters
			Param  string
		}{
			{
				Name:  "if a name is empty",
				Defs:  []Definition{QueryParam("")},
				Param: "",
			},
			{
				Name:  "if a name is declared twice",
				Defs:  []Definition{QueryParam("a"), RequestParam("a")},
				Param: "a",
			},
			{
				Name:  "if an incompatible parameter is not declared",
				Defs:  []Definition{QueryParam("a", IncompatibleWith("b"))},
				Param: "a",
			},
			{
				Name:  "if a parameter is incompatible with itself",
				Defs:  []Definition{QueryParam("a", IncompatibleWith("a"))},
				Param: "a",
			},
			{
				Name:  "if image is set on a query parameter",
				Defs:  []Definition{QueryParam("a", Image())},
				Param: "a",
			},
			{
				Name:  "if a file parameter has requirements",
				Defs:  []Definition{FileParam("a", Requirements(`.+`))},
				Param: "a",
			},
			{
				Name:  "if the requirement is not a valid regular expression",
				Defs:  []Definition{QueryParam("a", Requirements(`[a-z`))},
				Param: "a",
			},
			{
				Name: "if a pattern and candidates are both set",
				Defs: []Definition{
					QueryParam("a", Requirements(`\d+`), IdenticalTo(Choice("one", "1"))),
				},
				Param: "a",
			},
			{
				Name: "if a default references a parameter declared later",
				Defs: []Definition{
					QueryParam("a", Default("%b%")),
					QueryParam("b", Default("x")),
				},
				Param: "a",
			},
			{
				Name:  "if a default references its own parameter",
				Defs:  []Definition{QueryParam("a", Default("%a%"))},
				Param: "a",
			},
			{
				Name:  "if the kind is unknown",
				Defs:  []Definition{{Name: "a"}},
				Param: "a",
			},
			{
				Name:   "if an interpolated requirement is invalid",
				Defs:   []Definition{QueryParam("a", Requirements(`%bad%`))},
				Params: Parameters{"bad": "("},
				Param:  "a",
			},
		}

		for _, testCase := range testCases {
			t.Run(testCase.Name, func(t *testing.T) {
				_, err := NewRegistry(testCase.Defs, WithParameters(testCase.Params))
				require.ErrorIs(t, err, ErrConfiguration)

				var cerr *ConfigurationError
				require.ErrorAs(t, err, &cerr)
				require.Equal(t, testCase.Param, cerr.Param)
				require.NotEmpty(t, cerr.Error())
			})
		}
	})

	t.Run("will report every configuration error at once", func(t *testing.T) {
		_, err := NewRegistry([]Definition{
			QueryParam("a", IncompatibleWith("missing")),
			QueryParam("b", Image()),
			QueryParam("b"),
		})

		var joined interface{ Unwrap() []error }
		require.True(t, errors.As(err, &joined))
		require.Len(t, joined.Unwrap(), 3)
	})

	t.Run("will accept a default referencing the parameter bag", func(t *testing.T) {
		reg, err := NewRegistry([]Definition{
			QueryParam("a", Default("%unknown%")),
		})
		require.NoError(t, err)
		require.Equal(t, 1, reg.Len())
	})

	t.Run("will interpolate requirement placeholders from the parameter bag", func(t *testing.T) {
		reg := mustRegistry(t,
			[]Definition{RequestParam("bar", Nullable(), Requirements(`%bar%\ foo`))},
			WithParameters(Parameters{"bar": "foo"}),
		)

		pattern, ok := reg.Pattern("bar")
		require.True(t, ok)
		require.Equal(t, `foo\ foo`, pattern)
	})

	t.Run("will keep declaration order", func(t *testing.T) {
		reg := mustRegistry(t, []Definition{
			QueryParam("c"),
			QueryParam("a"),
			FileParam("b"),
		})

		require.Equal(t, []string{"c", "a", "b"}, reg.Names())
	})

	t.Run("will deduplicate symmetric incompatibilities", func(t *testing.T) {
		reg := mustRegistry(t, []Definition{
			QueryParam("foz", IncompatibleWith("baz")),
			QueryParam("baz", IncompatibleWith("foz")),
		})

		require.Equal(t, []pair{{a: "foz", b: "baz"}}, reg.pairs)
	})

	t.Run("will not be affected by changes to the given definitions", func(t *testing.T) {
		defs := []Definition{
			QueryParam("a", IdenticalTo(Choice("x", "x"))),
		}
		reg := mustRegistry(t, defs)

		defs[0].Candidates[0].Value = "y"

		d, ok := reg.Definition("a")
		require.True(t, ok)
		require.Equal(t, "x", d.Candidates[0].Value)
	})
}
