package topics

import "sort"

// RankedTerm is a vocabulary term with its importance score for one topic.
type RankedTerm struct {
	Term  string  `json:"term"`
	Score float64 `json:"score"`
}

// TopTerms returns the n highest scoring terms for the topic at the given
// class index, in descending score order. Ties break on vocabulary order so
// the ranking is stable.
func (r *FitResult) TopTerms(classIndex, n int) []RankedTerm {
	_, v := r.Importance.Dims()
	ranked := make([]RankedTerm, v)
	for j := 0; j < v; j++ {
		ranked[j] = RankedTerm{Term: r.Vocabulary[j], Score: r.Importance.At(classIndex, j)}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Score > ranked[j].Score })
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
