// Package cluster provides the bundled clustering algorithms for the topic
// pipeline: density-based DBSCAN (the default, which labels low-density
// documents as outliers) and k-means with k-means++ initialization.
//
// Both operate on cosine distance, consistent with the embedding space, and
// implement the topics.Clusterer capability.
package cluster

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/quarrylabs/strata/internal/topics"
)

// DefaultEps is the default DBSCAN neighborhood radius in cosine distance.
const DefaultEps = 0.25

// DefaultMinPoints is the default DBSCAN core-point threshold.
const DefaultMinPoints = 5

// DBSCAN clusters rows by density over cosine distance. Rows that belong to
// no dense region are assigned topics.Outlier.
type DBSCAN struct {
	Eps       float64 // neighborhood radius; <= 0 uses DefaultEps
	MinPoints int     // minimum neighborhood size for a core point; <= 0 uses DefaultMinPoints
}

// FitPredict assigns a label per row, with -1 for noise.
func (d DBSCAN) FitPredict(m *mat.Dense) ([]topics.Label, error) {
	eps := d.Eps
	if eps <= 0 {
		eps = DefaultEps
	}
	minPts := d.MinPoints
	if minPts <= 0 {
		minPts = DefaultMinPoints
	}

	n, _ := m.Dims()
	if n == 0 {
		return nil, fmt.Errorf("dbscan: no rows to cluster")
	}

	visited := make([]bool, n)
	labels := make([]topics.Label, n)
	for i := range labels {
		labels[i] = topics.Outlier
	}

	next := topics.Label(0)
	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		visited[i] = true

		neighbors := neighborhood(m, i, eps)
		if len(neighbors) < minPts {
			continue // stays noise unless a later core point claims it
		}
		expand(m, i, neighbors, next, eps, minPts, visited, labels)
		next++
	}
	return labels, nil
}

// neighborhood returns the indices within eps cosine distance of row i.
func neighborhood(m *mat.Dense, i int, eps float64) []int {
	n, _ := m.Dims()
	var out []int
	for j := 0; j < n; j++ {
		if j == i {
			continue
		}
		if cosineDistance(m.RawRowView(i), m.RawRowView(j)) <= eps {
			out = append(out, j)
		}
	}
	return out
}

// expand grows a cluster outward from a core point, claiming all
// density-reachable rows.
func expand(m *mat.Dense, i int, neighbors []int, id topics.Label, eps float64, minPts int, visited []bool, labels []topics.Label) {
	labels[i] = id
	for cursor := 0; cursor < len(neighbors); cursor++ {
		j := neighbors[cursor]
		if !visited[j] {
			visited[j] = true
			more := neighborhood(m, j, eps)
			if len(more) >= minPts {
				for _, candidate := range more {
					if !contains(neighbors, candidate) {
						neighbors = append(neighbors, candidate)
					}
				}
			}
		}
		if labels[j] == topics.Outlier {
			labels[j] = id
		}
	}
}

func contains(s []int, x int) bool {
	for _, v := range s {
		if v == x {
			return true
		}
	}
	return false
}

func cosineDistance(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
