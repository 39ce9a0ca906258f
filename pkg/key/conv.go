package key

import (
	"fmt"
	"math"
)

// ConversionError is returned when an integer does not fit a key's width.
// Value holds the original input unchanged.
type ConversionError struct {
	Value  any
	Target string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("integer overflow: %v cannot be converted to %s", e.Value, e.Target)
}

// Int32KeyFrom converts a narrower integer. It cannot fail.
func Int32KeyFrom[N int8 | uint8 | int16 | uint16](v N) Int32Key {
	return Int32Key{ID: int32(v)}
}

// Uint32KeyFrom converts a narrower unsigned integer. It cannot fail.
func Uint32KeyFrom[N uint8 | uint16](v N) Uint32Key {
	return Uint32Key{ID: uint32(v)}
}

// TryInt32Key converts v if it lies within the int32 range.
func TryInt32Key[N uint32 | uint64 | uint | int64 | int](v N) (Int32Key, error) {
	if !inRange(v, math.MinInt32, math.MaxInt32) {
		return Int32Key{}, &ConversionError{Value: v, Target: "int32 key"}
	}
	return Int32Key{ID: int32(v)}, nil
}

// TryUint32Key converts v if it lies within the uint32 range.
func TryUint32Key[N int8 | int16 | int32 | int64 | int | uint64 | uint](v N) (Uint32Key, error) {
	if !inRange(v, 0, math.MaxUint32) {
		return Uint32Key{}, &ConversionError{Value: v, Target: "uint32 key"}
	}
	return Uint32Key{ID: uint32(v)}, nil
}

// inRange reports whether lo <= v <= hi without overflowing for any input width.
func inRange[N int8 | int16 | int32 | int64 | int | uint32 | uint64 | uint](v N, lo int64, hi uint64) bool {
	if v < 0 {
		return int64(v) >= lo
	}
	return uint64(v) <= hi
}
