// Package topics implements the statistical estimation and merging engine of
// the clustering topic model.
//
// Three responsibilities:
//   - Estimation: per-topic centroid embeddings and sizes from cluster labels
//   - Importance: a topic×term matrix under one of two scoring strategies
//   - Merging: collapsing topics to a target count via agglomerative clustering
//
// All per-topic arrays (centroids, sizes, importance rows) are index-aligned
// to the ascending sorted set of distinct labels, with the outlier label -1
// sorting first when present.
package topics

import "sort"

// Label is a cluster assignment for a single document. It is either a content
// topic index (>= 0) or Outlier. The outlier value is part of the label
// domain's contract: it marks documents not confidently assigned to any topic
// and is a first-class label, not an error.
type Label int

// Outlier is the reserved label for noise/unassigned documents.
const Outlier Label = -1

// Classes returns the distinct labels in ascending order. Outlier, if
// present, sorts first.
func Classes(labels []Label) []Label {
	seen := make(map[Label]struct{}, len(labels))
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	classes := make([]Label, 0, len(seen))
	for l := range seen {
		classes = append(classes, l)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i] < classes[j] })
	return classes
}

// Sizes returns the document count per class, index-aligned to classes.
// The sizes always sum to len(labels).
func Sizes(labels []Label, classes []Label) []int {
	index := make(map[Label]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	sizes := make([]int, len(classes))
	for _, l := range labels {
		sizes[index[l]]++
	}
	return sizes
}

// Mapping is a total remapping from original label to merged label, built
// once per merge request. When the outlier label is present it always maps
// to itself: outlier status is never merged into a content topic.
type Mapping map[Label]Label

// Apply remaps every document label through the mapping, returning a new
// label array of the same length.
func (m Mapping) Apply(labels []Label) []Label {
	out := make([]Label, len(labels))
	for i, l := range labels {
		out[i] = m[l]
	}
	return out
}

// Identity reports whether the mapping sends every label to itself.
func (m Mapping) Identity() bool {
	for from, to := range m {
		if from != to {
			return false
		}
	}
	return true
}
