// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
)

// OutcomeKind tags the result of resolving one parameter.
type OutcomeKind int

const (
	// KindPresent means the value came from the request.
	KindPresent OutcomeKind = iota + 1

	// KindPresentMap means a list of values came from the request.
	KindPresentMap

	// KindDefault means the parameter was absent or invalid and its
	// default was used.
	KindDefault

	// KindNull means a nullable parameter was absent.
	KindNull

	// KindViolation means a strict parameter failed validation.
	KindViolation
)

// String implements the [fmt.Stringer] interface.
func (k OutcomeKind) String() string {
	switch k {
	case KindPresent:
		return "present"
	case KindPresentMap:
		return "present_map"
	case KindDefault:
		return "default"
	case KindNull:
		return "null"
	case KindViolation:
		return "violation"
	default:
		return "unknown"
	}
}

// Failure describes why a raw value was rejected.
type Failure struct {
	Reason Reason
	Detail string

	// Index of the offending item for map parameters, -1 otherwise.
	Index int
}

// Outcome is the memoized result of resolving one parameter.
//
// A failed value is recorded no matter the parameter's strictness: a
// [KindViolation] keeps the value a lenient resolution would have produced
// in Value, and a degraded lenient outcome keeps its Failure. This lets a
// strictness override be applied on read without resolving again.
type Outcome struct {
	Kind    OutcomeKind
	Value   any
	Failure *Failure
}

// present reports whether the value was supplied by the request.
func (o Outcome) present() bool {
	return o.Kind == KindPresent || o.Kind == KindPresentMap
}

func (o Outcome) value(strict bool) (any, *Failure) {
	if o.Failure != nil && strict {
		return nil, o.Failure
	}
	return cloneValue(o.Value), nil
}

func cloneValue(v any) any {
	switch x := v.(type) {
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = cloneValue(item)
		}
		return out
	case map[string]any:
		out := maps.Clone(x)
		for k, item := range out {
			out[k] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// stringify returns the string form of a scalar value and whether v is a
// scalar at all.
func stringify(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", true
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case File:
		return x.Filename(), true
	case fmt.Stringer:
		return x.String(), true
	case []any, map[string]any:
		return "", false
	default:
		return fmt.Sprint(x), true
	}
}
