package reduce

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestPCAProjectsAlongVarianceAxis(t *testing.T) {
	// All variance lies along x; y is constant.
	x := mat.NewDense(4, 2, []float64{
		0, 5,
		1, 5,
		2, 5,
		3, 5,
	})

	projected, err := PCA{Components: 1}.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	n, c := projected.Dims()
	if n != 4 || c != 1 {
		t.Fatalf("got %dx%d projection, want 4x1", n, c)
	}

	// The projection is the centered x column up to sign.
	want := []float64{-1.5, -0.5, 0.5, 1.5}
	sign := 1.0
	if projected.At(0, 0) > 0 {
		sign = -1
	}
	for i, w := range want {
		if got := sign * projected.At(i, 0); math.Abs(got-w) > 1e-9 {
			t.Fatalf("projection[%d] = %v, want %v (up to sign)", i, got, w)
		}
	}
}

func TestPCATruncatesComponents(t *testing.T) {
	// 3 rows of 2-dimensional data cannot support 5 components.
	x := mat.NewDense(3, 2, []float64{
		1, 2,
		3, 1,
		2, 4,
	})
	projected, err := PCA{Components: 5}.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	if _, c := projected.Dims(); c != 2 {
		t.Fatalf("got %d components, want 2", c)
	}
}

func TestPCADefaultComponents(t *testing.T) {
	x := mat.NewDense(10, 8, nil)
	for i := 0; i < 10; i++ {
		for j := 0; j < 8; j++ {
			x.Set(i, j, float64((i*7+j*3)%5))
		}
	}
	projected, err := PCA{}.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	if _, c := projected.Dims(); c != DefaultComponents {
		t.Fatalf("got %d components, want %d", c, DefaultComponents)
	}
}

func TestPCAEmptyInput(t *testing.T) {
	if _, err := (PCA{Components: 2}).FitTransform(new(mat.Dense)); err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestIdentityPassesThrough(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	out, err := Identity{}.FitTransform(x)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}
	if out != x {
		t.Fatal("identity reducer must return its input")
	}
}
