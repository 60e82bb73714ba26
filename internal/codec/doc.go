/*
Package codec converts values between the goja guest engine and the host.

# Overview

Two directions are supported:

  - Guest to host: GuestToHost walks a goja value and produces a tree of
    int64, float64, string, bool, nil, []any and map[string]any.
  - Host to wire: HostToWire and EncodeArgs turn host values into the JSON
    array literal used to pass arguments into a synthesized call expression.

# Numbers

Guest numbers follow the engine's own split. Values that fit a signed 32-bit
integer convert as signed integers, values that only fit an unsigned 32-bit
integer convert using the unsigned interpretation, and everything else
(including -0, NaN and non-integral values) converts as float64.

# Arrays and Objects

Arrays are read through their length property coerced with ToUint32, then
indexed from zero. Plain objects contribute their own enumerable string keys
only. Functions, symbols and BigInts have no host representation and fail
with a *ConversionError.

# Errors

	result, err := codec.GuestToHost(vm, value)
	if errors.Is(err, codec.ErrConversion) {
		// the script returned something that cannot leave the engine
	}
*/
package codec
