package common

import (
	"math"
	"testing"
)

func matricesClose(a, b []float32, tol float64) bool {
	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > tol {
			return false
		}
	}
	return true
}

func TestIdentity(t *testing.T) {
	m := make([]float32, 16)
	for i := range m {
		m[i] = 7
	}
	Identity(m)

	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			want := float32(0)
			if row == col {
				want = 1
			}
			if m[col*4+row] != want {
				t.Fatalf("Identity[%d][%d] = %f", row, col, m[col*4+row])
			}
		}
	}
}

func TestMul4Identity(t *testing.T) {
	ident := make([]float32, 16)
	Identity(ident)

	m := []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
		13, 14, 15, 16,
	}

	out := make([]float32, 16)
	Mul4(out, ident, m)
	if !matricesClose(out, m, 0) {
		t.Errorf("I * M should equal M, got %v", out)
	}

	Mul4(out, m, ident)
	if !matricesClose(out, m, 0) {
		t.Errorf("M * I should equal M, got %v", out)
	}
}

func TestMul4AliasedOutput(t *testing.T) {
	m := []float32{
		2, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 2, 0,
		0, 0, 0, 1,
	}
	expected := []float32{
		4, 0, 0, 0,
		0, 4, 0, 0,
		0, 0, 4, 0,
		0, 0, 0, 1,
	}

	// out aliases an input; the internal buffer must keep the result correct.
	Mul4(m, m, m)
	if !matricesClose(m, expected, 0) {
		t.Errorf("Aliased multiply wrong: %v", m)
	}
}

func TestInvert4RoundTrip(t *testing.T) {
	view := make([]float32, 16)
	LookAt(view, 3, 4, 5, 0, 0, 0, 0, 1, 0)

	inv := make([]float32, 16)
	if !Invert4(inv, view) {
		t.Fatal("View matrix should be invertible")
	}

	product := make([]float32, 16)
	Mul4(product, view, inv)

	ident := make([]float32, 16)
	Identity(ident)
	if !matricesClose(product, ident, 1e-4) {
		t.Errorf("M * M^-1 should be identity, got %v", product)
	}
}

func TestInvert4Singular(t *testing.T) {
	singular := make([]float32, 16) // all zeros
	out := []float32{
		9, 9, 9, 9,
		9, 9, 9, 9,
		9, 9, 9, 9,
		9, 9, 9, 9,
	}

	if Invert4(out, singular) {
		t.Fatal("Zero matrix must not invert")
	}
	if out[0] != 9 {
		t.Error("Failed inversion must leave the output unchanged")
	}
}

func TestPerspectiveDepthRange(t *testing.T) {
	proj := make([]float32, 16)
	Perspective(proj, float32(math.Pi/4), 16.0/9.0, 0.1, 1000)

	// Project a point on the near plane: z maps to 0 in WebGPU clip space.
	nearClip := proj[10]*(-0.1) + proj[14]
	nearW := proj[11] * (-0.1)
	if math.Abs(float64(nearClip/nearW)) > 1e-5 {
		t.Errorf("Near plane should map to depth 0, got %f", nearClip/nearW)
	}

	// And the far plane maps to 1.
	farClip := proj[10]*(-1000) + proj[14]
	farW := proj[11] * (-1000)
	if math.Abs(float64(farClip/farW-1)) > 1e-4 {
		t.Errorf("Far plane should map to depth 1, got %f", farClip/farW)
	}
}

func TestLookAtTransformsEyeToOrigin(t *testing.T) {
	view := make([]float32, 16)
	LookAt(view, 1, 2, 3, 0, 0, 0, 0, 1, 0)

	var out [3]float32
	for row := 0; row < 3; row++ {
		out[row] = view[row]*1 + view[4+row]*2 + view[8+row]*3 + view[12+row]
	}
	for i := range out {
		if math.Abs(float64(out[i])) > 1e-5 {
			t.Errorf("Eye should map to origin, got %v", out)
			break
		}
	}
}

func TestNormalize3(t *testing.T) {
	v := Normalize3([3]float32{3, 0, 4})
	if math.Abs(float64(v[0]-0.6)) > 1e-6 || math.Abs(float64(v[2]-0.8)) > 1e-6 {
		t.Errorf("Expected (0.6, 0, 0.8), got %v", v)
	}

	zero := Normalize3([3]float32{})
	if zero != ([3]float32{}) {
		t.Errorf("Zero vector should stay zero, got %v", zero)
	}
}

func TestCross3(t *testing.T) {
	got := Cross3([3]float32{1, 0, 0}, [3]float32{0, 1, 0})
	if got != ([3]float32{0, 0, 1}) {
		t.Errorf("X cross Y should be Z, got %v", got)
	}
}

func TestLength3(t *testing.T) {
	if got := Length3([3]float32{2, 3, 6}); got != 7 {
		t.Errorf("Expected length 7, got %f", got)
	}
}

func TestSliceToBytes(t *testing.T) {
	data := []uint32{0x01020304, 0xAABBCCDD}
	b := SliceToBytes(data)
	if len(b) != 8 {
		t.Fatalf("Expected 8 bytes, got %d", len(b))
	}
	// Little-endian layout on all supported targets.
	if b[0] != 0x04 || b[3] != 0x01 {
		t.Errorf("Unexpected byte layout: %v", b)
	}

	if b := SliceToBytes([]uint32(nil)); b != nil {
		t.Error("Empty slice should convert to nil")
	}
}

func TestStructToBytes(t *testing.T) {
	v := struct {
		A uint32
		B uint32
	}{A: 1, B: 2}

	b := StructToBytes(&v)
	if len(b) != 8 {
		t.Fatalf("Expected 8 bytes, got %d", len(b))
	}
	if b[0] != 1 || b[4] != 2 {
		t.Errorf("Unexpected layout: %v", b)
	}
}
