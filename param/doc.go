// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package param declares, fetches and validates request parameters.
//
// Parameters are declared once per route as an ordered list of
// [Definition]s and compiled into an immutable [Registry]:
//
//	reg, err := param.NewRegistry([]param.Definition{
//	    param.QueryParam("page", param.Requirements(`\d+`), param.Default("1")),
//	    param.QueryParam("sort", param.Requirements(`[a-z_]+`)),
//	    param.RequestParam("email", param.Nullable()),
//	    param.FileParam("avatar", param.Image(), param.Strict(false)),
//	})
//
// Every request then gets its own [Fetcher], which reads raw values from a
// [Source], resolves every definition in declaration order on first access
// and memoizes the result:
//
//	src, err := param.FromRequest(r)
//	f := param.NewFetcher(reg, src)
//	page, err := f.Get("page")
//	all, err := f.All()
//
// # Resolution
//
// For each definition the raw value is read from its source. An absent
// nullable parameter resolves to nil. Any other absent parameter resolves
// to its default, after %name% placeholders in a string default have been
// replaced with already resolved parameters or the process-wide
// [Parameters] bag (%% is a literal %). A present value must satisfy the
// declared requirement: a strict parameter reports a violation otherwise,
// a lenient one falls back to its default. Map parameters apply the same
// rules to each item.
//
// After resolution, parameters declared incompatible with each other are
// rejected when both came from the request.
//
// # Errors
//
// [NewRegistry] reports malformed declarations as [ConfigurationError]s.
// [Fetcher.Get] and [Fetcher.All] report [ValidationError],
// [ConflictError] and [UnknownParameterError]. [Fetcher.All] never stops at
// the first problem; every violating parameter is reported at once.
package param
