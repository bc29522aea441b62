package kernel

import (
	"testing"

	"numexpr/internal/types"
)

func TestArithPromotion(t *testing.T) {
	fn, ok := Lookup("+", 2)
	if !ok {
		t.Fatal("expected + to be registered")
	}
	res, err := fn([]types.Scalar{{Tag: types.Int32, I: 10}, {Tag: types.Float64, F64: 1.5}})
	if err != nil {
		t.Fatalf("fn: %v", err)
	}
	if res.Tag != types.Float64 || res.F64 != 11.5 {
		t.Fatalf("res = %+v, want float64 11.5", res)
	}
}

func TestDivideAlwaysFloat(t *testing.T) {
	fn, _ := Lookup("/", 2)
	res, err := fn([]types.Scalar{{Tag: types.Int32, I: 7}, {Tag: types.Int32, I: 2}})
	if err != nil {
		t.Fatalf("fn: %v", err)
	}
	if !types.IsFloat(res.Tag) || res.F64 != 3.5 {
		t.Fatalf("res = %+v, want float 3.5", res)
	}
}

func TestModuloByZeroErrors(t *testing.T) {
	fn, _ := Lookup("%", 2)
	if _, err := fn([]types.Scalar{{Tag: types.Int32, I: 1}, {Tag: types.Int32, I: 0}}); err == nil {
		t.Fatal("expected error for modulo by zero")
	}
}

func TestCompareComparesRealPartOfComplex(t *testing.T) {
	fn, _ := Lookup("<", 2)
	res, err := fn([]types.Scalar{{Tag: types.Complex128, C128: complex(1, 100)}, {Tag: types.Complex128, C128: complex(2, -100)}})
	if err != nil {
		t.Fatalf("fn: %v", err)
	}
	if res.I != 1 {
		t.Fatalf("res = %+v, want true (1 < 2 by real part)", res)
	}
}

func TestSqrtPreservesFloat32(t *testing.T) {
	fn, _ := Lookup("sqrt", 1)
	res, err := fn([]types.Scalar{{Tag: types.Float32, F64: 9}})
	if err != nil {
		t.Fatalf("fn: %v", err)
	}
	if res.Tag != types.Float32 || res.F64 != 3 {
		t.Fatalf("res = %+v, want float32 3", res)
	}
}
