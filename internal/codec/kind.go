package codec

import (
	"math"
	"reflect"

	"github.com/dop251/goja"
)

// Kind is the classification of a guest value. The set is closed: every
// goja value maps to exactly one Kind, and values outside the marshalling
// domain map to KindUnsupported.
type Kind int

const (
	KindUnsupported Kind = iota
	KindUndefined
	KindNull
	KindBool
	KindInt32
	KindUint32
	KindFloat64
	KindString
	KindArray
	KindObject
	KindFunction
	KindSymbol
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt32:
		return "int32"
	case KindUint32:
		return "uint32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindFunction:
		return "function"
	case KindSymbol:
		return "symbol"
	default:
		return "unsupported"
	}
}

// Classify reports the Kind of a guest value. A nil value (a missing
// property) classifies as undefined.
func Classify(v goja.Value) Kind {
	if v == nil || goja.IsUndefined(v) {
		return KindUndefined
	}
	if goja.IsNull(v) {
		return KindNull
	}

	switch val := v.(type) {
	case *goja.Symbol:
		return KindSymbol
	case *goja.Object:
		if _, ok := goja.AssertFunction(val); ok {
			return KindFunction
		}
		if val.ClassName() == "Array" {
			return KindArray
		}
		return KindObject
	}

	typ := v.ExportType()
	if typ == nil {
		return KindUnsupported
	}

	switch typ.Kind() {
	case reflect.Bool:
		return KindBool
	case reflect.String:
		return KindString
	case reflect.Int64:
		return classifyInt(v.Export().(int64))
	case reflect.Float64:
		return classifyFloat(v.ToFloat())
	default:
		// BigInt exports as *big.Int and lands here.
		return KindUnsupported
	}
}

func classifyInt(i int64) Kind {
	switch {
	case i >= math.MinInt32 && i <= math.MaxInt32:
		return KindInt32
	case i >= 0 && i <= math.MaxUint32:
		return KindUint32
	default:
		return KindFloat64
	}
}

func classifyFloat(f float64) Kind {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return KindFloat64
	}
	// -0 is not representable as an integer.
	if f == 0 && math.Signbit(f) {
		return KindFloat64
	}
	switch {
	case f >= math.MinInt32 && f <= math.MaxInt32:
		return KindInt32
	case f >= 0 && f <= math.MaxUint32:
		return KindUint32
	default:
		return KindFloat64
	}
}

// toUint32 implements the ECMAScript ToUint32 abstract operation.
func toUint32(v goja.Value) uint32 {
	f := v.ToFloat()
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	m := math.Mod(math.Trunc(f), 1<<32)
	if m < 0 {
		m += 1 << 32
	}
	return uint32(m)
}
