// Package reduce provides dimensionality reduction for the clustering stage.
//
// PCA projects embeddings onto their leading principal components via a thin
// SVD. Identity passes embeddings through untouched, for callers that supply
// already-reduced vectors.
package reduce

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultComponents is the default PCA output dimensionality.
const DefaultComponents = 5

// PCA reduces an n×d matrix to n×c by principal component projection.
type PCA struct {
	Components int // <= 0 uses DefaultComponents
}

// FitTransform mean-centers the input, factorizes it with a thin SVD, and
// projects onto the leading components. When the input has fewer dimensions
// (or rows) than requested components, the projection is truncated to what
// the factorization supports.
func (p PCA) FitTransform(x *mat.Dense) (*mat.Dense, error) {
	c := p.Components
	if c <= 0 {
		c = DefaultComponents
	}

	n, d := x.Dims()
	if n == 0 || d == 0 {
		return nil, fmt.Errorf("pca: empty input matrix")
	}
	if c > d {
		c = d
	}
	if c > n {
		c = n
	}

	centered := mat.NewDense(n, d, nil)
	centered.Copy(x)
	for j := 0; j < d; j++ {
		mean := stat.Mean(mat.Col(nil, j, centered), nil)
		for i := 0; i < n; i++ {
			centered.Set(i, j, centered.At(i, j)-mean)
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(centered, mat.SVDThin); !ok {
		return nil, fmt.Errorf("pca: SVD factorization failed")
	}

	var v mat.Dense
	svd.VTo(&v)

	// Columns of V are the principal axes.
	axes := mat.NewDense(d, c, nil)
	for j := 0; j < c; j++ {
		for i := 0; i < d; i++ {
			axes.Set(i, j, v.At(i, j))
		}
	}

	projected := mat.NewDense(n, c, nil)
	projected.Mul(centered, axes)
	return projected, nil
}

// Identity is a no-op reducer.
type Identity struct{}

// FitTransform returns its input unchanged.
func (Identity) FitTransform(x *mat.Dense) (*mat.Dense, error) {
	return x, nil
}
