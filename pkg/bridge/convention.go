package bridge

import (
	"fmt"
	"reflect"
)

// Convention is the calling style a request arrived in.
type Convention int

const (
	ConventionPositional Convention = iota
	ConventionCallback
)

func (c Convention) String() string {
	if c == ConventionCallback {
		return "callback"
	}
	return "positional"
}

// Call is a request normalized out of raw entry-point arguments.
type Call struct {
	Method     string
	Params     []any
	Callback   Callback
	Convention Convention
}

// Detect classifies raw arguments. The callback form is an object (Request,
// *Request or a map with "method"/"params") followed by a callback; anything
// else is positional (method string, params sequence). Arguments fitting
// neither shape come back as positional together with ErrConventionMismatch.
// Detect never modifies args.
func Detect(args ...any) (Call, error) {
	if len(args) >= 2 {
		if cb, ok := asCallback(args[1]); ok {
			if req, ok := asRequest(args[0]); ok {
				return Call{Method: req.Method, Params: req.Params, Callback: cb, Convention: ConventionCallback}, nil
			}
		}
	}

	if len(args) == 0 {
		return Call{}, fmt.Errorf("%w: no arguments", ErrConventionMismatch)
	}
	method, ok := args[0].(string)
	if !ok {
		return Call{}, fmt.Errorf("%w: method is %T", ErrConventionMismatch, args[0])
	}
	call := Call{Method: method}
	if len(args) > 1 {
		params, ok := asParams(args[1])
		if !ok {
			return call, fmt.Errorf("%w: params is %T", ErrConventionMismatch, args[1])
		}
		call.Params = params
	}
	return call, nil
}

func asCallback(v any) (Callback, bool) {
	switch cb := v.(type) {
	case Callback:
		return cb, cb != nil
	case func(error, *Response):
		return cb, cb != nil
	}
	return nil, false
}

func asRequest(v any) (Request, bool) {
	switch req := v.(type) {
	case Request:
		return req, true
	case *Request:
		if req == nil {
			return Request{}, false
		}
		return *req, true
	case map[string]any:
		method, ok := req["method"].(string)
		if !ok {
			return Request{}, false
		}
		params, ok := asParams(req["params"])
		if !ok {
			return Request{}, false
		}
		return Request{Method: method, Params: params}, true
	}
	return Request{}, false
}

// asParams accepts nil, []any or any other slice or array, which is copied
// element by element into a fresh []any.
func asParams(v any) ([]any, bool) {
	switch p := v.(type) {
	case nil:
		return nil, true
	case []any:
		return p, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
