// Copyright (c) 2025 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package param

import "fmt"

type resolver struct {
	params   Parameters
	src      Source
	resolved map[string]Outcome
}

// lookup prefers resolved parameters over the bag. A violation carries the
// value a lenient resolution would have produced, so it is used as is.
func (r *resolver) lookup(name string) (string, bool) {
	if o, ok := r.resolved[name]; ok {
		if o.Kind == KindNull {
			return "", true
		}
		s, _ := stringify(o.Value)
		return s, true
	}
	return r.params.Lookup(name)
}

// fallback is the value used when a parameter is absent or, for lenient
// parameters, invalid.
func (r *resolver) fallback(d Definition) any {
	if s, ok := d.Default.(string); ok {
		return Interpolate(s, r.lookup)
	}
	return cloneValue(d.Default)
}

func (r *resolver) resolve(e entry) Outcome {
	d := e.def
	raw, ok := lookup(r.src, d)
	// an explicit null counts as absent
	if ok && raw == nil {
		ok = false
	}

	if !ok {
		switch {
		case d.Nullable:
			return Outcome{Kind: KindNull}
		case d.Map && d.Default == nil:
			return Outcome{Kind: KindDefault, Value: []any{}}
		default:
			return Outcome{Kind: KindDefault, Value: r.fallback(d)}
		}
	}

	if d.Map {
		return r.resolveMap(e, raw)
	}

	if f := r.check(e, raw); f != nil {
		f.Index = -1
		return r.fail(d, KindDefault, r.fallback(d), f)
	}
	return Outcome{Kind: KindPresent, Value: raw}
}

func (r *resolver) resolveMap(e entry, raw any) Outcome {
	d := e.def
	items, isList := raw.([]any)
	if !isList {
		items = []any{raw}
	}

	var first *Failure
	values := make([]any, len(items))
	for i, item := range items {
		if item == nil {
			if d.Nullable {
				continue
			}
			values[i] = r.fallback(d)
			continue
		}

		f := r.check(e, item)
		if f == nil {
			values[i] = item
			continue
		}

		values[i] = r.fallback(d)
		if first == nil {
			f.Index = i
			first = f
		}
	}

	if first != nil {
		return r.fail(d, KindPresentMap, values, first)
	}
	return Outcome{Kind: KindPresentMap, Value: values}
}

func (r *resolver) fail(d Definition, lenient OutcomeKind, v any, f *Failure) Outcome {
	if d.Strict {
		return Outcome{Kind: KindViolation, Value: v, Failure: f}
	}
	return Outcome{Kind: lenient, Value: v, Failure: f}
}

func (r *resolver) check(e entry, v any) *Failure {
	if e.def.Kind == FileUpload {
		file, ok := v.(File)
		if !ok {
			return &Failure{
				Reason: ReasonNotFile,
				Detail: fmt.Sprintf("expected an uploaded file, got %T", v),
			}
		}
		if e.def.Image && !IsImage(file) {
			return &Failure{
				Reason: ReasonNotImage,
				Detail: fmt.Sprintf("%q is not an image", file.Filename()),
			}
		}
		return nil
	}

	s, scalar := stringify(v)
	if !scalar {
		return &Failure{
			Reason: ReasonNotScalar,
			Detail: "expected a single value",
		}
	}
	if e.req == nil || e.req.match(s) {
		return nil
	}
	return &Failure{
		Reason: ReasonMismatch,
		Detail: fmt.Sprintf("%q does not match %s", s, e.req),
	}
}
