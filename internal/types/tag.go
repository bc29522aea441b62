// Package types implements the numeric type lattice shared by every
// stage of the expression engine: the lexer's literal suffixes, the
// semantic analyzer's promotion rules, the kernel registry's dispatch
// key, and the JIT backend's C/LLVM type mapping all go through here.
package types

// Tag is one of the closed set of numeric tags a value or variable can
// carry. Auto is a compile-time-only sentinel meaning "infer."
type Tag uint8

const (
	Auto Tag = iota
	Bool
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Complex64
	Complex128
	String
)

func (t Tag) String() string {
	switch t {
	case Auto:
		return "auto"
	case Bool:
		return "bool"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Complex64:
		return "complex64"
	case Complex128:
		return "complex128"
	case String:
		return "string"
	default:
		return "tag(?)"
	}
}

// CastKind names the conversion family needed to go from one tag to
// another; the JIT backend and the scalar coercion path in the block
// evaluator both switch on this instead of re-deriving it per call.
type CastKind uint8

const (
	CastIdentity CastKind = iota
	CastWiden
	CastNarrow
	CastSignChange
	CastFloatToInt
	CastIntToFloat
	CastComplexToReal
	CastRealToComplex
	CastBoolToNumeric
	CastNumericToBool
)

type traits struct {
	width      int
	signed     bool
	float      bool
	complex    bool
	rank       int
}

// info is populated once at package init; it is read-only thereafter so
// every goroutine can read it lock-free — the table never needs an
// atomic guard because it is built before any goroutine but main() can
// observe it.
var info = map[Tag]traits{
	Bool:       {width: 1, signed: false, rank: 0},
	Int8:       {width: 1, signed: true, rank: 1},
	Uint8:      {width: 1, signed: false, rank: 1},
	Int16:      {width: 2, signed: true, rank: 2},
	Uint16:     {width: 2, signed: false, rank: 2},
	Int32:      {width: 4, signed: true, rank: 3},
	Uint32:     {width: 4, signed: false, rank: 3},
	Int64:      {width: 8, signed: true, rank: 4},
	Uint64:     {width: 8, signed: false, rank: 4},
	Float32:    {width: 4, float: true, signed: true, rank: 5},
	Float64:    {width: 8, float: true, signed: true, rank: 6},
	Complex64:  {width: 8, complex: true, signed: true, rank: 7},
	Complex128: {width: 16, complex: true, signed: true, rank: 8},
	String:     {width: 0, rank: -1},
}

// Width returns the byte width of one element of tag t. String tags
// have a per-variable element size instead (see the variable
// descriptor), so Width returns 0 for String.
func Width(t Tag) int { return info[t].width }

func IsFloat(t Tag) bool   { return info[t].float }
func IsComplex(t Tag) bool { return info[t].complex }
func IsSignedInt(t Tag) bool {
	tr := info[t]
	return tr.signed && !tr.float && !tr.complex && t != Bool
}
func IsUnsignedInt(t Tag) bool {
	return !info[t].signed && t != Bool && t != String && info[t].width > 0
}
func IsInteger(t Tag) bool {
	return !info[t].float && !info[t].complex && t != Bool && t != String && t != Auto
}

// Promote implements the numeric promotion lattice.
func Promote(a, b Tag) Tag {
	if a == b {
		return a
	}
	if a == String || b == String {
		// Strings only promote with themselves; callers must reject
		// mixed string/numeric before reaching here.
		return String
	}
	ta, tb := info[a], info[b]

	// (d) complex dominates real of the same width family.
	// Widths are compared per component: a complex tag's width covers
	// two floats, so it counts as half its size here.
	if ta.complex || tb.complex {
		wa, wb := ta.width, tb.width
		if ta.complex {
			wa /= 2
		}
		if tb.complex {
			wb /= 2
		}
		if wa <= 4 && wb <= 4 {
			return Complex64
		}
		return Complex128
	}
	// (a) mixing integer and float yields the float.
	if ta.float != tb.float {
		if ta.float {
			return widestFloat(a, b)
		}
		return widestFloat(b, a)
	}
	// (b) mixing two floats yields the wider.
	if ta.float && tb.float {
		if ta.width >= tb.width {
			return a
		}
		return b
	}
	// bool is rank-zero integer; promotes to the other operand's tag.
	if a == Bool {
		return b
	}
	if b == Bool {
		return a
	}
	// (c) mixing signed and unsigned of the same width yields the
	// wider signed one level up, saturating at 64 bits.
	if ta.signed != tb.signed {
		width := ta.width
		if tb.width > width {
			width = tb.width
		}
		return signedAtLeast(width * 2)
	}
	if ta.width >= tb.width {
		return a
	}
	return b
}

func widestFloat(floatTag, intTag Tag) Tag {
	ft := info[floatTag]
	it := info[intTag]
	if it.width*1 > ft.width || floatTag == Float32 && it.width >= 4 {
		return Float64
	}
	return floatTag
}

func signedAtLeast(width int) Tag {
	switch {
	case width <= 1:
		return Int8
	case width <= 2:
		return Int16
	case width <= 4:
		return Int32
	default:
		return Int64
	}
}

// CastKindOf returns the conversion family for from -> to. Identity
// covers from == to.
func CastKindOf(from, to Tag) CastKind {
	if from == to {
		return CastIdentity
	}
	if to == Bool {
		return CastNumericToBool
	}
	if from == Bool {
		return CastBoolToNumeric
	}
	if IsComplex(from) && !IsComplex(to) {
		return CastComplexToReal
	}
	if !IsComplex(from) && IsComplex(to) {
		return CastRealToComplex
	}
	if IsFloat(from) && !IsFloat(to) && !IsComplex(to) {
		return CastFloatToInt
	}
	if !IsFloat(from) && !IsComplex(from) && IsFloat(to) {
		return CastIntToFloat
	}
	if IsSignedInt(from) != IsSignedInt(to) && Width(from) == Width(to) {
		return CastSignChange
	}
	if Width(to) > Width(from) {
		return CastWiden
	}
	return CastNarrow
}
