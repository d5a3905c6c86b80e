package topics

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// MergeMapping builds a label remapping that reduces the number of content
// topics to target.
//
// If the number of non-outlier topics is already <= target (including the
// degenerate cases of zero or one content topic), the identity mapping is
// returned and no clustering runs: an unreachable target is a no-op, not an
// error. Otherwise the non-outlier centroid rows are grouped by hierarchical
// agglomerative clustering with cosine affinity and average linkage into
// exactly target groups, and each original label maps to its group index.
// The outlier label, when present, always maps to itself.
//
// The mapping only defines the new label partition; merged topic statistics
// must be recomputed from raw data by a second estimation pass.
func MergeMapping(topicVectors *mat.Dense, classes []Label, target int) Mapping {
	mapping := make(Mapping, len(classes))
	for _, c := range classes {
		mapping[c] = c
	}

	content := make([]Label, 0, len(classes))
	rows := make([]int, 0, len(classes))
	for i, c := range classes {
		if c != Outlier {
			content = append(content, c)
			rows = append(rows, i)
		}
	}
	if target < 1 || len(content) <= target {
		return mapping
	}

	groups := agglomerate(topicVectors, rows, target)
	for i, c := range content {
		mapping[c] = Label(groups[i])
	}
	return mapping
}

// agglomerate runs bottom-up average-linkage clustering over the given rows
// of the centroid matrix until k clusters remain, then returns a group index
// per input row. Group indices are assigned by each surviving cluster's
// earliest member, so the result is deterministic for a fixed input.
func agglomerate(vectors *mat.Dense, rows []int, k int) []int {
	n := len(rows)

	dist := make([][]float64, n)
	for i := 0; i < n; i++ {
		dist[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i != j {
				dist[i][j] = 1 - cosineSimilarity(vectors.RawRowView(rows[i]), vectors.RawRowView(rows[j]))
			}
		}
	}

	clusters := make([][]int, n)
	for i := range clusters {
		clusters[i] = []int{i}
	}

	for len(clusters) > k {
		minDist := math.Inf(1)
		mergeI, mergeJ := -1, -1
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				// Average linkage: mean pairwise distance between members.
				sum := 0.0
				for _, a := range clusters[i] {
					for _, b := range clusters[j] {
						sum += dist[a][b]
					}
				}
				avg := sum / float64(len(clusters[i])*len(clusters[j]))
				if avg < minDist {
					minDist = avg
					mergeI, mergeJ = i, j
				}
			}
		}
		clusters[mergeI] = append(clusters[mergeI], clusters[mergeJ]...)
		clusters = append(clusters[:mergeJ], clusters[mergeJ+1:]...)
	}

	groups := make([]int, n)
	for g, members := range clusters {
		for _, m := range members {
			groups[m] = g
		}
	}
	return groups
}
