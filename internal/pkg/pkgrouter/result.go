package pkgrouter

import (
	"errors"
	"math/big"
	"reflect"
	"strconv"
)

//nolint:err113,stylecheck // message is part of the public contract
var ErrNoProcessor = errors.New("Return type of controller has no defined processor")

// Kind is the encoding chosen for a handler result.
type Kind int

const (
	KindEmpty Kind = iota
	KindText
	KindJSON
	KindRaw
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindJSON:
		return "json"
	case KindRaw:
		return "raw"
	case KindBool:
		return "bool"
	default:
		return "empty"
	}
}

// Result is the tagged value the encoder turns into a response.
type Result struct {
	kind  Kind
	text  string
	value any
	raw   *Response
	flag  bool
}

// Empty encodes as an empty text/plain body.
func Empty() Result { return Result{kind: KindEmpty} }

// Text encodes s as a text/plain body.
func Text(s string) Result { return Result{kind: KindText, text: s} }

// JSON encodes v as an application/json body. A nil v yields an empty body.
func JSON(v any) Result { return Result{kind: KindJSON, value: v} }

// Raw returns resp verbatim, skipping default headers and status.
func Raw(resp *Response) Result { return Result{kind: KindRaw, raw: resp} }

// Bool encodes b as "true" or "false".
func Bool(b bool) Result { return Result{kind: KindBool, flag: b} }

// Kind returns the result's encoding.
func (r Result) Kind() Kind { return r.kind }

// Infer maps a handler return value to a Result. The first matching rule
// wins: integers, text, nil, *Response, structured values, booleans.
// Anything else returns ErrNoProcessor.
func Infer(v any) (Result, error) {
	switch val := v.(type) {
	case nil:
		return Empty(), nil
	case Result:
		return val, nil
	case *Result:
		if val == nil {
			return Empty(), nil
		}
		return *val, nil
	case *big.Int:
		if val == nil {
			return Empty(), nil
		}
		return Text(val.String()), nil
	case string:
		return Text(val), nil
	case []byte:
		return Text(string(val)), nil
	case *Response:
		if val == nil {
			return Empty(), nil
		}
		return Raw(val), nil
	case bool:
		return Bool(val), nil
	}

	return inferReflect(reflect.ValueOf(v))
}

func inferReflect(rv reflect.Value) (Result, error) {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Text(strconv.FormatInt(rv.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Text(strconv.FormatUint(rv.Uint(), 10)), nil
	case reflect.String:
		return Text(rv.String()), nil
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return JSON(rv.Interface()), nil
	case reflect.Pointer:
		if isStructured(rv.Type().Elem().Kind()) {
			return JSON(rv.Interface()), nil
		}
		if rv.IsNil() {
			return Empty(), nil
		}
		return inferReflect(rv.Elem())
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	}

	return Result{}, ErrNoProcessor
}

func isStructured(k reflect.Kind) bool {
	switch k {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	}
	return false
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
