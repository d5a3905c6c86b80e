package topics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Strategy selects how term importances are estimated. Exactly two strategies
// exist; anything else is a configuration error.
type Strategy string

const (
	// StrategyCTFIDF scores terms with class-based smoothed tf-idf: per topic,
	// term counts are aggregated over the topic's documents and scaled by an
	// inverse-document-frequency term computed over the whole corpus. Scores
	// are non-negative; higher = more characteristic of the topic relative to
	// the corpus.
	StrategyCTFIDF Strategy = "ctfidf"

	// StrategyCentroid scores terms by cosine similarity between the topic
	// centroid and the term's embedding. Entries lie in [-1, 1]; higher
	// similarity = more characteristic. Scores are not comparable across
	// strategies, only within one.
	StrategyCentroid Strategy = "centroid"
)

// ParseStrategy validates a strategy tag.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyCTFIDF, StrategyCentroid:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown feature importance strategy %q (want %q or %q)", s, StrategyCTFIDF, StrategyCentroid)
}

// CTFIDF computes the class-based tf-idf importance matrix.
//
// A one-hot document×topic indicator is built from the labels and combined
// with the document×term count matrix to aggregate, per topic, term counts
// over all of the topic's documents. Each aggregate is then scaled by
// log(1 + A/(1+df)) where df is the corpus document frequency of the term and
// A the average total term count per topic. The +1 terms keep every score
// finite and non-negative, including for terms absent from a topic.
func CTFIDF(labels []Label, classes []Label, docTerm *mat.Dense) (*mat.Dense, error) {
	n, v := docTerm.Dims()
	if v == 0 {
		return nil, fmt.Errorf("ctfidf: empty vocabulary")
	}
	if n != len(labels) {
		return nil, fmt.Errorf("ctfidf: %d labels for %d document rows", len(labels), n)
	}

	index := make(map[Label]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}

	// indicator is topic×document so a single multiply yields topic×term.
	indicator := mat.NewDense(len(classes), n, nil)
	for i, l := range labels {
		indicator.Set(index[l], i, 1)
	}

	tf := mat.NewDense(len(classes), v, nil)
	tf.Mul(indicator, docTerm)

	df := make([]float64, v)
	total := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < v; j++ {
			c := docTerm.At(i, j)
			if c > 0 {
				df[j]++
			}
			total += c
		}
	}
	avgPerTopic := total / float64(len(classes))

	for j := 0; j < v; j++ {
		idf := math.Log(1 + avgPerTopic/(1+df[j]))
		for t := range classes {
			tf.Set(t, j, tf.At(t, j)*idf)
		}
	}
	return tf, nil
}

// CentroidSimilarity computes the centroid-strategy importance matrix: cosine
// similarity between each topic centroid and each vocabulary term embedding.
// Entries lie in [-1, 1]; a zero vector on either side scores 0.
func CentroidSimilarity(topicVectors, vocabEmbeddings *mat.Dense) (*mat.Dense, error) {
	k, d := topicVectors.Dims()
	v, vd := vocabEmbeddings.Dims()
	if v == 0 {
		return nil, fmt.Errorf("centroid importance: empty vocabulary")
	}
	if d != vd {
		return nil, fmt.Errorf("centroid importance: topic vectors are %d-dimensional but term embeddings are %d-dimensional", d, vd)
	}

	out := mat.NewDense(k, v, nil)
	for t := 0; t < k; t++ {
		for j := 0; j < v; j++ {
			out.Set(t, j, cosineSimilarity(topicVectors.RawRowView(t), vocabEmbeddings.RawRowView(j)))
		}
	}
	return out, nil
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
