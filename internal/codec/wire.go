package codec

import (
	"math"
	"reflect"
	"strconv"

	"github.com/bytedance/sonic"
)

// maxSafeInteger is the largest integer the guest represents exactly.
const maxSafeInteger = 1<<53 - 1

// HostToWire normalizes a host value into a JSON-encodable tree built from
// nil, bool, int64, uint64, float64, string, []any and map[string]any.
//
// Slices and arrays become JSON arrays. Map keys must be strings or integers;
// integer keys are formatted in base 10, and keys that collide after
// formatting overwrite each other. Integers outside ±(2^53-1), which the
// guest would round, non-finite floats, cyclic maps and slices, and every
// other kind are rejected with a *SerializationError.
func HostToWire(v any) (any, error) {
	w := wireEncoder{visiting: make(map[visit]struct{})}
	return w.encode(v)
}

// visit identifies a map or slice backing array on the current path.
type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

type wireEncoder struct {
	visiting map[visit]struct{}
}

func (w *wireEncoder) encode(v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch val := v.(type) {
	case bool, string:
		return val, nil
	case int:
		return safeInt(int64(val))
	case int64:
		return safeInt(val)
	case uint64:
		return safeUint(val)
	case float64:
		return finite(val)
	}

	return w.value(reflect.ValueOf(v))
}

func (w *wireEncoder) value(rv reflect.Value) (any, error) {
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return safeInt(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return safeUint(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return finite(rv.Float())
	case reflect.String:
		return rv.String(), nil
	case reflect.Slice:
		if rv.IsNil() {
			return []any{}, nil
		}
		return w.slice(rv)
	case reflect.Array:
		return w.slice(rv)
	case reflect.Map:
		return w.mapping(rv)
	case reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return w.encode(rv.Elem().Interface())
	default:
		return nil, unsupportedHost(rv.Interface())
	}
}

// enter marks a map or non-empty slice as being encoded. Arrays are values
// and cannot contain themselves.
func (w *wireEncoder) enter(rv reflect.Value) (visit, bool, error) {
	switch {
	case rv.Kind() == reflect.Map && !rv.IsNil():
	case rv.Kind() == reflect.Slice && rv.Len() > 0:
	default:
		return visit{}, false, nil
	}

	key := visit{ptr: rv.Pointer(), typ: rv.Type(), len: rv.Len()}
	if rv.Kind() == reflect.Map {
		key.len = 0
	}
	if _, ok := w.visiting[key]; ok {
		return visit{}, false, &SerializationError{Type: rv.Type().String(), Reason: "cyclic structure"}
	}
	w.visiting[key] = struct{}{}
	return key, true, nil
}

func (w *wireEncoder) slice(rv reflect.Value) (any, error) {
	key, entered, err := w.enter(rv)
	if err != nil {
		return nil, err
	}
	if entered {
		defer delete(w.visiting, key)
	}

	out := make([]any, rv.Len())
	for i := range out {
		item, err := w.encode(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out[i] = item
	}
	return out, nil
}

func (w *wireEncoder) mapping(rv reflect.Value) (any, error) {
	key, entered, err := w.enter(rv)
	if err != nil {
		return nil, err
	}
	if entered {
		defer delete(w.visiting, key)
	}

	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		name, err := wireKey(iter.Key())
		if err != nil {
			return nil, err
		}
		item, err := w.encode(iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		out[name] = item
	}
	return out, nil
}

func safeInt(i int64) (any, error) {
	if i > maxSafeInteger || i < -maxSafeInteger {
		return nil, &SerializationError{Type: "int64", Reason: "integer out of the guest's exact range"}
	}
	return i, nil
}

func safeUint(u uint64) (any, error) {
	if u > maxSafeInteger {
		return nil, &SerializationError{Type: "uint64", Reason: "integer out of the guest's exact range"}
	}
	return u, nil
}

func wireKey(k reflect.Value) (string, error) {
	if k.Kind() == reflect.Interface {
		if k.IsNil() {
			return "", &SerializationError{Type: "<nil>", Reason: "mapping keys must be strings"}
		}
		k = k.Elem()
	}

	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(k.Uint(), 10), nil
	default:
		return "", &SerializationError{Type: k.Type().String(), Reason: "mapping keys must be strings"}
	}
}

func finite(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, &SerializationError{Type: "float64", Reason: "unable to serialize non-finite float value"}
	}
	return f, nil
}

// EncodeArgs serializes call arguments into a JSON array literal. Nothing
// is encoded unless every argument is within the marshalling domain.
func EncodeArgs(args []any) (string, error) {
	wire := make([]any, len(args))
	for i, arg := range args {
		w, err := HostToWire(arg)
		if err != nil {
			return "", err
		}
		wire[i] = w
	}

	data, err := sonic.ConfigStd.Marshal(wire)
	if err != nil {
		return "", &SerializationError{Type: "[]any", Reason: "encoding failed", Err: err}
	}
	return string(data), nil
}
