package topics

import (
	"gonum.org/v1/gonum/mat"
)

// TopicVectors computes per-topic centroid embeddings.
//
// Given a per-document label array of length n and an n×d embedding matrix,
// it returns a k×d matrix where k is the number of distinct labels (including
// the outlier) and row i is the arithmetic mean of the embeddings whose label
// is the i-th smallest. No smoothing, no weighting.
//
// A class with zero members cannot occur: classes originate from an actual
// assignment over the same document set.
func TopicVectors(labels []Label, embeddings *mat.Dense, classes []Label) *mat.Dense {
	_, d := embeddings.Dims()
	index := make(map[Label]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	centroids := mat.NewDense(len(classes), d, nil)
	counts := make([]float64, len(classes))
	for i, l := range labels {
		row := index[l]
		counts[row]++
		for j := 0; j < d; j++ {
			centroids.Set(row, j, centroids.At(row, j)+embeddings.At(i, j))
		}
	}
	for row := range classes {
		for j := 0; j < d; j++ {
			centroids.Set(row, j, centroids.At(row, j)/counts[row])
		}
	}
	return centroids
}
