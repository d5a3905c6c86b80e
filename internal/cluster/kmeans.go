package cluster

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/quarrylabs/strata/internal/topics"
)

// KMeans clusters rows into exactly K groups. Centroids are seeded with
// k-means++ from a fixed source so runs are reproducible. KMeans never emits
// the outlier label: every row is assigned to its nearest centroid.
type KMeans struct {
	K             int
	MaxIterations int     // <= 0 uses 100
	Tolerance     float64 // centroid movement below this stops early; <= 0 uses 1e-4
	Seed          int64   // 0 uses a fixed default seed
}

// FitPredict assigns each row to one of K clusters.
func (k KMeans) FitPredict(m *mat.Dense) ([]topics.Label, error) {
	n, d := m.Dims()
	if k.K < 1 {
		return nil, fmt.Errorf("kmeans: k must be at least 1, got %d", k.K)
	}
	if n < k.K {
		return nil, fmt.Errorf("kmeans: %d rows for k=%d", n, k.K)
	}

	maxIter := k.MaxIterations
	if maxIter <= 0 {
		maxIter = 100
	}
	tol := k.Tolerance
	if tol <= 0 {
		tol = 1e-4
	}
	seed := k.Seed
	if seed == 0 {
		seed = 42
	}
	rng := rand.New(rand.NewSource(seed))

	centroids := seedCentroids(m, k.K, rng)
	assignments := make([]int, n)

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i := 0; i < n; i++ {
			best, bestDist := 0, math.Inf(1)
			for c := 0; c < k.K; c++ {
				if dist := cosineDistance(m.RawRowView(i), centroids.RawRowView(c)); dist < bestDist {
					best, bestDist = c, dist
				}
			}
			if assignments[i] != best {
				assignments[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		next := recompute(m, assignments, k.K, d)
		movement := 0.0
		for c := 0; c < k.K; c++ {
			movement += cosineDistance(centroids.RawRowView(c), next.RawRowView(c))
		}
		centroids = next
		if movement/float64(k.K) < tol {
			break
		}
	}

	labels := make([]topics.Label, n)
	for i, a := range assignments {
		labels[i] = topics.Label(a)
	}
	return labels, nil
}

// seedCentroids picks K initial centroids with k-means++: the first uniformly
// at random, each further one with probability proportional to squared
// distance from the nearest centroid chosen so far.
func seedCentroids(m *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, d := m.Dims()
	centroids := mat.NewDense(k, d, nil)
	centroids.SetRow(0, m.RawRowView(rng.Intn(n)))

	for c := 1; c < k; c++ {
		weights := make([]float64, n)
		total := 0.0
		for i := 0; i < n; i++ {
			nearest := math.Inf(1)
			for prev := 0; prev < c; prev++ {
				if dist := cosineDistance(m.RawRowView(i), centroids.RawRowView(prev)); dist < nearest {
					nearest = dist
				}
			}
			weights[i] = nearest * nearest
			total += weights[i]
		}
		if total == 0 {
			centroids.SetRow(c, m.RawRowView(rng.Intn(n)))
			continue
		}
		target := rng.Float64() * total
		sum := 0.0
		for i, w := range weights {
			sum += w
			if sum >= target {
				centroids.SetRow(c, m.RawRowView(i))
				break
			}
		}
	}
	return centroids
}

// recompute averages each cluster's members into new centroids. An empty
// cluster keeps a zero centroid, which the next assignment round repopulates.
func recompute(m *mat.Dense, assignments []int, k, d int) *mat.Dense {
	centroids := mat.NewDense(k, d, nil)
	counts := make([]int, k)
	n, _ := m.Dims()
	for i := 0; i < n; i++ {
		c := assignments[i]
		counts[c]++
		row := m.RawRowView(i)
		for j := 0; j < d; j++ {
			centroids.Set(c, j, centroids.At(c, j)+row[j])
		}
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		for j := 0; j < d; j++ {
			centroids.Set(c, j, centroids.At(c, j)/float64(counts[c]))
		}
	}
	return centroids
}
