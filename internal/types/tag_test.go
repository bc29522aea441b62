package types

import "testing"

func TestPromoteIntFloat(t *testing.T) {
	cases := []struct {
		a, b, want Tag
	}{
		{Int32, Int32, Int32},
		{Int32, Float64, Float64},
		{Float32, Float64, Float64},
		{Bool, Int32, Int32},
		{Int32, Uint32, Int64},
		{Complex64, Float64, Complex128},
	}
	for _, c := range cases {
		if got := Promote(c.a, c.b); got != c.want {
			t.Errorf("Promote(%s,%s) = %s, want %s", c.a, c.b, got, c.want)
		}
		if got := Promote(c.b, c.a); got != c.want {
			t.Errorf("Promote(%s,%s) = %s, want %s (commuted)", c.b, c.a, got, c.want)
		}
	}
}

func TestWidth(t *testing.T) {
	if Width(Int64) != 8 {
		t.Fatalf("Width(Int64) = %d, want 8", Width(Int64))
	}
	if Width(Bool) != 1 {
		t.Fatalf("Width(Bool) = %d, want 1", Width(Bool))
	}
}

func TestCastKindOf(t *testing.T) {
	cases := []struct {
		from, to Tag
		want     CastKind
	}{
		{Int32, Int32, CastIdentity},
		{Int32, Int64, CastWiden},
		{Int64, Int32, CastNarrow},
		{Float64, Int32, CastFloatToInt},
		{Int32, Float64, CastIntToFloat},
		{Complex128, Float64, CastComplexToReal},
		{Float64, Complex128, CastRealToComplex},
		{Bool, Int32, CastBoolToNumeric},
		{Int32, Bool, CastNumericToBool},
	}
	for _, c := range cases {
		if got := CastKindOf(c.from, c.to); got != c.want {
			t.Errorf("CastKindOf(%s,%s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestPredicates(t *testing.T) {
	if !IsFloat(Float32) || IsFloat(Int32) {
		t.Fatal("IsFloat wrong")
	}
	if !IsComplex(Complex64) || IsComplex(Float64) {
		t.Fatal("IsComplex wrong")
	}
	if !IsSignedInt(Int8) || IsSignedInt(Uint8) || IsSignedInt(Bool) {
		t.Fatal("IsSignedInt wrong")
	}
}
