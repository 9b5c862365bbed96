package datacube

import (
	"cmp"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/chenxingqiang/go-floatx"
	"github.com/kshard/float8"
	"github.com/shogo82148/float128"
	"github.com/shogo82148/int128"
	"github.com/x448/float16"
)

// Describes the native representation of the values along one datacube axis, and how those values
// are parsed from request input, converted to floats for slicing, and compared.
type AxisType uint32

const (
	AxisUnknown  AxisType = 0  // Generally indicates an error.
	AxisInt64    AxisType = 1  // A 64-bit signed integer.
	AxisFloat64  AxisType = 2  // A 64-bit floating point number.
	AxisFloat32  AxisType = 3  // A 32-bit floating point number.
	AxisFloat16  AxisType = 4  // A 16-bit floating point number using github.com/x448/float16.
	AxisBFloat16 AxisType = 5  // A 16-bit brain floating point number.
	AxisFloat8   AxisType = 6  // An 8-bit floating point number.
	AxisInt128   AxisType = 7  // A 128-bit signed integer using github.com/shogo82148/int128.
	AxisUint128  AxisType = 8  // A 128-bit unsigned integer using github.com/shogo82148/int128.
	AxisFloat128 AxisType = 9  // A 128-bit floating point number using github.com/shogo82148/float128.
	AxisTime     AxisType = 10 // A point in time, stored as time.Time.
	AxisString   AxisType = 11 // A categorical value with no ordering beyond its text.
)

var axisTypeNames = map[AxisType]string{
	AxisUnknown:  "unknown",
	AxisInt64:    "int64",
	AxisFloat64:  "float64",
	AxisFloat32:  "float32",
	AxisFloat16:  "float16",
	AxisBFloat16: "bfloat16",
	AxisFloat8:   "float8",
	AxisInt128:   "int128",
	AxisUint128:  "uint128",
	AxisFloat128: "float128",
	AxisTime:     "time",
	AxisString:   "string",
}

func (t AxisType) String() string {
	if name, ok := axisTypeNames[t]; ok {
		return name
	}
	panic("polytope: unsupported axis type")
}

// Looks up an axis type by the name its String method returns. The name "int" is accepted as an
// alias of int64.
func ParseAxisType(name string) (AxisType, error) {
	if name == "int" {
		return AxisInt64, nil
	}
	for t, n := range axisTypeNames {
		if n == name && t != AxisUnknown {
			return t, nil
		}
	}
	return AxisUnknown, UnsupportedError("axis type '" + name + "'")
}

// Reports whether values of this type can be interpolated, and so whether shapes can be sliced
// along axes of this type. Categorical axes only support exact selections.
func (t AxisType) Sliceable() bool {
	return t != AxisString && t != AxisUnknown
}

// The distance under which two values converted to floats are the same location on the axis.
func (t AxisType) Tolerance() float64 {
	switch t {
	case AxisTime, AxisString, AxisUnknown:
		return 0
	default:
		return 1e-12
	}
}

// Converts a request value into the native representation of this type. Numbers of any builtin
// kind and their string forms are accepted for numeric types; times are accepted as time.Time, as
// RFC 3339 or compact date strings, or as seconds since the Unix epoch.
func (t AxisType) Parse(v any) (any, error) {
	switch t {
	case AxisString:
		return fmt.Sprint(v), nil
	case AxisTime:
		return parseTime(v)
	case AxisInt128:
		if n, ok := v.(int128.Int128); ok {
			return n, nil
		}
		b, err := parseBigInt(v)
		if err != nil {
			return nil, err
		}
		return int128FromBig(b), nil
	case AxisUint128:
		if n, ok := v.(int128.Uint128); ok {
			return n, nil
		}
		b, err := parseBigInt(v)
		if err != nil {
			return nil, err
		}
		if b.Sign() < 0 {
			return nil, fmt.Errorf("polytope: negative value %v for %s axis", v, t)
		}
		return uint128FromBig(b), nil
	case AxisFloat128:
		if f, ok := v.(float128.Float128); ok {
			return f, nil
		}
	case AxisFloat16:
		if f, ok := v.(float16.Float16); ok {
			return f, nil
		}
	case AxisBFloat16:
		if f, ok := v.(floatx.BFloat16); ok {
			return f, nil
		}
	case AxisFloat8:
		if f, ok := v.(float8.Float8); ok {
			return f, nil
		}
	case AxisInt64:
		switch n := v.(type) {
		case int64:
			return n, nil
		case int:
			return int64(n), nil
		case string:
			if i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64); err == nil {
				return i, nil
			}
		}
	case AxisUnknown:
		return nil, UnsupportedError("parsing a value of unknown axis type")
	}

	f, err := numberToFloat(v)
	if err != nil {
		return nil, err
	}
	if t == AxisInt64 && f != math.Trunc(f) {
		return nil, fmt.Errorf("polytope: value %v is not an integer", v)
	}
	return t.FromFloat(f), nil
}

// Converts a request coordinate straight into the float form used for slicing, without passing
// through the native representation. Shape vertices fall between the stored values, so a vertex
// of 0.5 is valid on an integer axis.
func (t AxisType) ParseFloat(v any) (float64, error) {
	if !t.Sliceable() {
		return 0, UnsupportedError("float coordinates on a " + t.String() + " axis")
	}
	switch n := v.(type) {
	case int128.Int128:
		return AxisInt128.ToFloat(n), nil
	case int128.Uint128:
		return AxisUint128.ToFloat(n), nil
	case float128.Float128:
		return AxisFloat128.ToFloat(n), nil
	case float16.Float16:
		return AxisFloat16.ToFloat(n), nil
	case floatx.BFloat16:
		return AxisBFloat16.ToFloat(n), nil
	case float8.Float8:
		return AxisFloat8.ToFloat(n), nil
	case time.Time:
		return AxisTime.ToFloat(n), nil
	}
	if t == AxisTime {
		tm, err := parseTime(v)
		if err != nil {
			return 0, err
		}
		return t.ToFloat(tm), nil
	}
	return numberToFloat(v)
}

// Converts a native value of this type to a float for slicing and interpolation.
func (t AxisType) ToFloat(v any) float64 {
	switch t {
	case AxisInt64:
		return float64(v.(int64))
	case AxisFloat64:
		return v.(float64)
	case AxisFloat32:
		return float64(v.(float32))
	case AxisFloat16:
		return float64(v.(float16.Float16).Float32())
	case AxisBFloat16:
		return float64(v.(floatx.BFloat16).Float32())
	case AxisFloat8:
		return float64(float8.ToFloat32(v.(float8.Float8)))
	case AxisInt128:
		n := v.(int128.Int128)
		if (n.H == 0 && n.L < 1<<63) || (n.H == -1 && n.L >= 1<<63) {
			return float64(int64(n.L))
		}
		return float64(n.H)*(1<<64) + float64(n.L)
	case AxisUint128:
		n := v.(int128.Uint128)
		return float64(n.H)*(1<<64) + float64(n.L)
	case AxisFloat128:
		return v.(float128.Float128).Float64()
	case AxisTime:
		tm := v.(time.Time)
		return float64(tm.Unix()) + float64(tm.Nanosecond())/1e9
	default:
		panic("polytope: axis type " + t.String() + " has no float representation")
	}
}

// Converts a float back into the native representation of this type, rounding integers to the
// nearest value.
func (t AxisType) FromFloat(f float64) any {
	switch t {
	case AxisInt64:
		return int64(math.Round(f))
	case AxisFloat64:
		return f
	case AxisFloat32:
		return float32(f)
	case AxisFloat16:
		return float16.Fromfloat32(float32(f))
	case AxisBFloat16:
		return floatx.BF16Fromfloat32(float32(f))
	case AxisFloat8:
		return float8.ToFloat8(float32(f))
	case AxisInt128:
		b, _ := new(big.Float).SetFloat64(math.Round(f)).Int(nil)
		return int128FromBig(b)
	case AxisUint128:
		b, _ := new(big.Float).SetFloat64(math.Max(0, math.Round(f))).Int(nil)
		return uint128FromBig(b)
	case AxisFloat128:
		return float128.FromFloat64(f)
	case AxisTime:
		sec := math.Floor(f)
		nsec := math.Round((f - sec) * 1e9)
		return time.Unix(int64(sec), int64(nsec)).UTC()
	default:
		panic("polytope: axis type " + t.String() + " has no float representation")
	}
}

// Compares two native values of this type exactly. Returns -1 if a < b, 0 if a == b, 1 if a > b.
func (t AxisType) CompareValues(a, b any) int {
	switch t {
	case AxisInt64:
		return cmp.Compare(a.(int64), b.(int64))
	case AxisInt128:
		return a.(int128.Int128).Cmp(b.(int128.Int128))
	case AxisUint128:
		return a.(int128.Uint128).Cmp(b.(int128.Uint128))
	case AxisFloat128:
		return a.(float128.Float128).Compare(b.(float128.Float128))
	case AxisTime:
		return a.(time.Time).Compare(b.(time.Time))
	case AxisString:
		return cmp.Compare(a.(string), b.(string))
	case AxisUnknown:
		return 0
	default:
		return cmp.Compare(t.ToFloat(a), t.ToFloat(b))
	}
}

// Compares two native values, treating floating point values closer than twice the tolerance of the
// type as the same location on the axis.
func (t AxisType) CompareTolerant(a, b any) int {
	switch t {
	case AxisFloat64, AxisFloat32, AxisFloat16, AxisBFloat16, AxisFloat8, AxisFloat128:
		fa, fb := t.ToFloat(a), t.ToFloat(b)
		if math.Abs(fa-fb) <= 2*t.Tolerance() {
			return 0
		}
		return cmp.Compare(fa, fb)
	default:
		return t.CompareValues(a, b)
	}
}

func numberToFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int8:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case uint:
		return float64(n), nil
	case uint8:
		return float64(n), nil
	case uint16:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("polytope: value %q is not a number: %w", n, err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("polytope: value %v of type %T is not a number", v, v)
	}
}

func parseBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case string:
		b, ok := new(big.Int).SetString(strings.TrimSpace(n), 10)
		if !ok {
			return nil, fmt.Errorf("polytope: value %q is not an integer", n)
		}
		return b, nil
	case int64:
		return big.NewInt(n), nil
	case int:
		return big.NewInt(int64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	default:
		f, err := numberToFloat(v)
		if err != nil {
			return nil, err
		}
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("polytope: value %v is not an integer", v)
		}
		b, _ := new(big.Float).SetFloat64(f).Int(nil)
		return b, nil
	}
}

var two64 = new(big.Int).Lsh(big.NewInt(1), 64)

// Splits a big integer into the two's complement halves of a 128-bit signed integer.
func int128FromBig(b *big.Int) int128.Int128 {
	v := new(big.Int).Set(b)
	if v.Sign() < 0 {
		v.Add(v, new(big.Int).Lsh(two64, 64))
	}
	lo := new(big.Int).And(v, new(big.Int).Sub(two64, big.NewInt(1)))
	hi := new(big.Int).Rsh(v, 64)
	return int128.Int128{H: int64(hi.Uint64()), L: lo.Uint64()}
}

func uint128FromBig(b *big.Int) int128.Uint128 {
	lo := new(big.Int).And(b, new(big.Int).Sub(two64, big.NewInt(1)))
	hi := new(big.Int).Rsh(b, 64)
	return int128.Uint128{H: hi.Uint64(), L: lo.Uint64()}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"20060102T150405",
	"20060102T1504",
	"20060102150405",
	"200601021504",
	"20060102",
}

func parseTime(v any) (time.Time, error) {
	switch tv := v.(type) {
	case time.Time:
		return tv.UTC(), nil
	case string:
		s := strings.TrimSpace(tv)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("polytope: value %q is not a recognised time", tv)
	default:
		f, err := numberToFloat(v)
		if err != nil {
			return time.Time{}, err
		}
		return AxisTime.FromFloat(f).(time.Time), nil
	}
}
