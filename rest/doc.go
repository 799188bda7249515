// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package rest builds OpenAPI documented HTTP APIs whose request
// parameters are declared, fetched and validated with package param.
//
// # Operations
//
// An [Api] is a set of operations, each registered with [Operation] from a
// method, a [Path] and a typed [Handler]:
//
//	api := rest.NewApi(
//	    "Params",
//	    "v1.0.0",
//	    rest.Operation(
//	        http.MethodPost,
//	        rest.BasePath("/params"),
//	        rest.ProduceJson(echo),
//	        rest.RequestParam("raw", param.IdenticalTo(param.Choice("foo", "raw")), param.Default("invalid"), param.Strict(false)),
//	        rest.QueryParam("foz", param.Requirements(`[a-z]+`)),
//	        rest.QueryParam("baz", param.Requirements(`[a-z]+`), param.IncompatibleWith("foz")),
//	    ),
//	)
//
// # Parameters
//
// The declared parameters of an operation are compiled once into a
// [param.Registry]. Every request gets its own [param.Fetcher], available
// to the handler through [FetcherFrom]. Operations registered with [Force]
// validate every parameter before calling the handler.
//
// Validation failures and incompatible parameters are returned as a
// [BadRequestError]. The [ProblemDetailsErrorHandler] renders them as RFC
// 7807 problems listing every invalid parameter.
//
// # OpenAPI
//
// Every [Api] serves its OpenAPI 3.0 document at GET /openapi.json.
// Declared query parameters become operation parameters, body and file
// parameters become the request body schema.
package rest
