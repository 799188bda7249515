// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/z5labs/restkit"
	"github.com/z5labs/restkit/param"

	"github.com/google/uuid"
	"github.com/swaggest/openapi-go/openapi3"
)

// ProblemDetail represents an RFC 7807 Problem Details error response.
//
// RFC 7807 defines a standard format for HTTP API error responses.
// Embed this struct in your custom error types to add extension fields.
//
// Example:
//
//	type OutOfStockError struct {
//	    rest.ProblemDetail
//	    Sku string `json:"sku"`
//	}
//
// Reference: https://www.rfc-editor.org/rfc/rfc7807
type ProblemDetail struct {
	// Type is a URI reference that identifies the problem type.
	// Defaults to "about:blank" when the problem has no specific type.
	Type string `json:"type"`

	// Title is a short, human-readable summary of the problem type.
	Title string `json:"title"`

	// Status is the HTTP status code for this occurrence of the problem.
	Status int `json:"status"`

	// Detail is a human-readable explanation specific to this occurrence
	// of the problem.
	Detail string `json:"detail,omitempty"`

	// Instance is a URI reference that identifies the specific occurrence
	// of the problem.
	Instance string `json:"instance,omitempty"`
}

// Error implements the error interface.
// Returns the Detail field if present, otherwise returns the Title.
func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return p.Detail
	}
	return p.Title
}

type problemDetailMarker interface {
	statusCode() int
}

func (p ProblemDetail) statusCode() int {
	return p.Status
}

// InvalidParam describes one rejected request parameter.
type InvalidParam struct {
	Name   string `json:"name"`
	In     string `json:"in"`
	Reason string `json:"reason"`

	// Other names the parameter Name conflicts with, if any.
	Other string `json:"other,omitempty"`
}

// InvalidParamsProblem is the problem returned for requests whose
// parameters failed validation.
type InvalidParamsProblem struct {
	ProblemDetail

	InvalidParams []InvalidParam `json:"invalid_params"`
}

// ProblemDetailsErrorHandler is an [ErrorHandler] that returns RFC 7807 Problem Details responses.
//
// It provides three-tier error detection:
//  1. Errors embedding [ProblemDetail] - marshaled directly with all extension fields
//  2. [BadRequestError]s - parameter failures are listed in an
//     [InvalidParamsProblem], other causes become a generic 400
//  3. Generic errors - converted to 500 Internal Server Error
//
// Only parameter failures, which describe client input, are detailed in
// responses. Every other error uses a fixed detail message so internal
// error messages are never leaked. Each response gets a unique instance
// URI which is also logged along with the error.
//
// Example:
//
//	rest.Operation(
//	    http.MethodGet,
//	    rest.BasePath("/params"),
//	    rest.ProduceJson(p),
//	    rest.OnError(rest.NewProblemDetailsErrorHandler(
//	        rest.WithDefaultType("https://api.example.com/problems/"),
//	    )),
//	)
type ProblemDetailsErrorHandler struct {
	config problemDetailsConfig
	log    *slog.Logger
}

type problemDetailsConfig struct {
	DefaultType string
}

// ProblemDetailsOption configures a ProblemDetailsErrorHandler.
type ProblemDetailsOption func(*problemDetailsConfig)

// WithDefaultType sets the base type URI problems are built from.
// Defaults to "about:blank" per RFC 7807.
//
// For custom problem types, provide a base URI like:
// "https://api.example.com/problems/"
func WithDefaultType(uri string) ProblemDetailsOption {
	return func(c *problemDetailsConfig) {
		c.DefaultType = uri
	}
}

// NewProblemDetailsErrorHandler creates a new Problem Details error handler.
func NewProblemDetailsErrorHandler(opts ...ProblemDetailsOption) *ProblemDetailsErrorHandler {
	config := problemDetailsConfig{
		DefaultType: "about:blank",
	}
	for _, opt := range opts {
		opt(&config)
	}

	return &ProblemDetailsErrorHandler{
		config: config,
		log:    restkit.Logger("github.com/z5labs/restkit/rest"),
	}
}

// OnError implements the [ErrorHandler] interface.
func (h *ProblemDetailsErrorHandler) OnError(ctx context.Context, w http.ResponseWriter, err error) {
	instance := "urn:uuid:" + uuid.NewString()
	logOperationError(ctx, h.log, err, slog.String("instance", instance))

	var body any
	var status int
	switch pd := err.(type) {
	case problemDetailMarker:
		body = pd
		status = pd.statusCode()
	default:
		p := h.convert(err)
		p.setInstance(instance)
		body = p
		status = p.status()
	}

	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	encodeErr := json.NewEncoder(w).Encode(body)
	if encodeErr != nil {
		h.log.ErrorContext(ctx, "failed to encode problem details", slog.Any("error", encodeErr))
	}
}

type problem interface {
	setInstance(string)
	status() int
}

func (p *ProblemDetail) setInstance(s string) { p.Instance = s }
func (p *ProblemDetail) status() int          { return p.Status }

func (h *ProblemDetailsErrorHandler) convert(err error) problem {
	var badRequest BadRequestError
	if !errors.As(err, &badRequest) {
		return &ProblemDetail{
			Type:   h.config.DefaultType,
			Title:  "Internal Server Error",
			Status: http.StatusInternalServerError,
			Detail: "An internal server error occurred.",
		}
	}

	invalid := invalidParams(badRequest.Cause)
	if len(invalid) == 0 {
		p := &ProblemDetail{
			Type:   h.buildTypeURI("bad-request"),
			Title:  "Bad Request",
			Status: http.StatusBadRequest,
			Detail: "The request could not be understood.",
		}

		var invalidContentType InvalidContentTypeError
		if errors.As(badRequest.Cause, &invalidContentType) {
			p.Type = h.buildTypeURI("invalid-content-type")
			p.Title = "Invalid Content Type"
		}
		if errors.Is(badRequest.Cause, param.ErrMalformedRequest) {
			p.Type = h.buildTypeURI("malformed-request")
			p.Title = "Malformed Request"
		}
		return p
	}

	p := &InvalidParamsProblem{
		ProblemDetail: ProblemDetail{
			Type:   h.buildTypeURI("invalid-parameter-value"),
			Title:  "Invalid Parameter Value",
			Status: http.StatusBadRequest,
			Detail: "One or more request parameters are invalid.",
		},
		InvalidParams: invalid,
	}
	if errors.Is(badRequest.Cause, param.ErrConflict) {
		p.Type = h.buildTypeURI("incompatible-parameters")
		p.Title = "Incompatible Parameters"
	}
	return p
}

func invalidParams(err error) []InvalidParam {
	var params []InvalidParam
	for _, c := range conflictErrors(err) {
		params = append(params, InvalidParam{
			Name:   c.Param,
			Reason: "incompatible",
			Other:  c.Other,
		})
	}

	var verr *param.ValidationError
	if errors.As(err, &verr) {
		for _, v := range verr.Violations {
			params = append(params, InvalidParam{
				Name:   v.Param,
				In:     v.Kind.String(),
				Reason: string(v.Reason),
			})
		}
	}
	return params
}

// buildTypeURI constructs a type URI from a problem type identifier.
// If DefaultType is "about:blank", returns "about:blank" for all types.
func (h *ProblemDetailsErrorHandler) buildTypeURI(problemType string) string {
	if h.config.DefaultType == "about:blank" {
		return "about:blank"
	}
	return h.config.DefaultType + problemType
}

func problemResponseSpec(description string) openapi3.ResponseOrRef {
	// a nil schema still documents the media type
	schemaOrRef, _ := jsonSchemaOf(InvalidParamsProblem{})

	return openapi3.ResponseOrRef{
		Response: &openapi3.Response{
			Description: description,
			Content: map[string]openapi3.MediaType{
				"application/problem+json": {
					Schema: schemaOrRef,
				},
			},
		},
	}
}
