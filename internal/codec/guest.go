package codec

import (
	"strconv"

	"github.com/dop251/goja"
)

// GuestToHost converts a guest value into a host value. The result is built
// entirely from int64, float64, string, bool, nil, []any and map[string]any,
// and holds no references into the guest heap.
//
// Property reads may run guest code (getters, proxies) and panic with a goja
// exception; callers outside the runtime's execution context should run this
// inside Runtime.Try.
func GuestToHost(vm *goja.Runtime, v goja.Value) (any, error) {
	c := converter{vm: vm, visiting: make(map[*goja.Object]struct{})}
	return c.convert(v)
}

type converter struct {
	vm       *goja.Runtime
	visiting map[*goja.Object]struct{}
}

func (c *converter) convert(v goja.Value) (any, error) {
	kind := Classify(v)

	switch kind {
	case KindUndefined, KindNull:
		return nil, nil
	case KindBool:
		return v.ToBoolean(), nil
	case KindInt32:
		return int64(int32(v.ToInteger())), nil
	case KindUint32:
		return int64(uint32(v.ToInteger())), nil
	case KindFloat64:
		return v.ToFloat(), nil
	case KindString:
		return v.String(), nil
	case KindArray:
		return c.convertArray(v.(*goja.Object))
	case KindObject:
		return c.convertObject(v.(*goja.Object))
	default:
		return nil, unsupportedGuest(kind)
	}
}

func (c *converter) enter(obj *goja.Object) error {
	if _, ok := c.visiting[obj]; ok {
		return &ConversionError{Kind: Classify(obj), Reason: "cyclic structure"}
	}
	c.visiting[obj] = struct{}{}
	return nil
}

func (c *converter) leave(obj *goja.Object) {
	delete(c.visiting, obj)
}

func (c *converter) convertArray(obj *goja.Object) (any, error) {
	if err := c.enter(obj); err != nil {
		return nil, err
	}
	defer c.leave(obj)

	length := toUint32(obj.Get("length"))

	items := make([]any, 0, min(length, 1024))
	for i := uint32(0); i < length; i++ {
		item, err := c.convert(obj.Get(strconv.FormatUint(uint64(i), 10)))
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (c *converter) convertObject(obj *goja.Object) (any, error) {
	if err := c.enter(obj); err != nil {
		return nil, err
	}
	defer c.leave(obj)

	keys := obj.Keys()
	out := make(map[string]any, len(keys))
	for _, key := range keys {
		name, err := c.convertKey(key)
		if err != nil {
			return nil, err
		}
		value, err := c.convert(obj.Get(key))
		if err != nil {
			return nil, err
		}
		out[name] = value
	}
	return out, nil
}

// convertKey runs a property name through the same conversion as values.
// Keys() only yields string names, so the result is always a string.
func (c *converter) convertKey(key string) (string, error) {
	converted, err := c.convert(c.vm.ToValue(key))
	if err != nil {
		return "", err
	}
	name, ok := converted.(string)
	if !ok {
		return "", &ConversionError{Kind: KindObject, Reason: "property name is not a string"}
	}
	return name, nil
}
