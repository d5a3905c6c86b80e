package topics

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Encoder turns texts into dense embedding vectors. Implementations must be
// deterministic for a fixed model and input.
type Encoder interface {
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// Vectorizer extracts terms from documents, returning a document×term count
// matrix and the ordered, deduplicated vocabulary its columns refer to.
type Vectorizer interface {
	FitTransform(docs []string) (*mat.Dense, []string, error)
}

// Reducer lowers embedding dimensionality to aid clustering. Its output is
// used only for clustering, never exposed downstream.
type Reducer interface {
	FitTransform(m *mat.Dense) (*mat.Dense, error)
}

// Clusterer assigns a discrete label per input row, using Outlier (-1) as its
// noise sentinel by convention.
type Clusterer interface {
	FitPredict(m *mat.Dense) ([]Label, error)
}

// Stage identifies a pipeline stage. Fit runs the stages strictly in
// sequence; StageMerging and a second StageEstimation occur only when a
// reduction target is configured.
type Stage string

const (
	StageEncoding       Stage = "encoding"
	StageTermExtraction Stage = "term extraction"
	StageReduction      Stage = "dimensionality reduction"
	StageClustering     Stage = "clustering"
	StageEstimation     Stage = "parameter estimation"
	StageMerging        Stage = "topic merging"
)

// Options configures a Model. All four collaborators are required; exactly
// one implementation per role is bound here at configuration time.
type Options struct {
	Encoder    Encoder
	Vectorizer Vectorizer
	Reducer    Reducer
	Clusterer  Clusterer

	// Importance selects the term scoring strategy. Defaults to StrategyCTFIDF.
	Importance Strategy

	// ReduceTo, when > 0, merges topics down to this many content topics
	// after the first estimation pass and re-estimates on the merged labels.
	ReduceTo int

	// Progress, when set, is called as each stage starts.
	Progress func(Stage)
}

// Model is the pipeline orchestrator. It holds configuration only; every Fit
// call produces a fresh immutable FitResult, so a failed fit can never leave
// partially updated state behind. The collaborators themselves are stateful,
// which makes a single Model unsafe for concurrent Fit calls.
type Model struct {
	opts Options
}

// FitResult is the fitted state of one successful Fit call. All per-topic
// slices and matrix rows are index-aligned to Classes.
type FitResult struct {
	// Labels is the final per-document label assignment (post-merge when a
	// reduction target was configured).
	Labels []Label

	// Classes is the ascending distinct label set; Outlier sorts first.
	Classes []Label

	// TopicVectors is the k×d centroid matrix.
	TopicVectors *mat.Dense

	// TopicSizes is the per-topic document count; sums to len(Labels).
	TopicSizes []int

	// Importance is the k×v term importance matrix.
	Importance *mat.Dense

	// Vocabulary is the ordered term list the importance columns refer to.
	Vocabulary []string

	// VocabEmbeddings is the v×d matrix of term embeddings.
	VocabEmbeddings *mat.Dense

	// Merged is the label remapping that was applied, or nil when no merge
	// occurred.
	Merged Mapping
}

// New validates the configuration and returns a Model.
func New(opts Options) (*Model, error) {
	if opts.Encoder == nil {
		return nil, fmt.Errorf("topics: an Encoder is required")
	}
	if opts.Vectorizer == nil {
		return nil, fmt.Errorf("topics: a Vectorizer is required")
	}
	if opts.Reducer == nil {
		return nil, fmt.Errorf("topics: a Reducer is required")
	}
	if opts.Clusterer == nil {
		return nil, fmt.Errorf("topics: a Clusterer is required")
	}
	if opts.Importance == "" {
		opts.Importance = StrategyCTFIDF
	}
	if _, err := ParseStrategy(string(opts.Importance)); err != nil {
		return nil, err
	}
	if opts.ReduceTo < 0 {
		return nil, fmt.Errorf("topics: reduction target cannot be negative, got %d", opts.ReduceTo)
	}
	return &Model{opts: opts}, nil
}

// Fit runs the full pipeline over the documents and returns the fitted state.
//
// When embeddings is non-nil it is used as the precomputed n×d document
// embedding matrix and the encoding stage is skipped. Collaborator failures
// abort the fit and propagate wrapped with the stage name; nothing is
// published on failure.
func (m *Model) Fit(ctx context.Context, docs []string, embeddings *mat.Dense) (*FitResult, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("topics: no documents to fit")
	}

	if embeddings == nil {
		m.progress(StageEncoding)
		vectors, err := m.opts.Encoder.Encode(ctx, docs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", StageEncoding, err)
		}
		embeddings, err = EmbeddingMatrix(vectors)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", StageEncoding, err)
		}
	}
	n, _ := embeddings.Dims()
	if n != len(docs) {
		return nil, fmt.Errorf("topics: %d embedding rows for %d documents", n, len(docs))
	}

	m.progress(StageTermExtraction)
	docTerm, vocab, err := m.opts.Vectorizer.FitTransform(docs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageTermExtraction, err)
	}
	if len(vocab) == 0 {
		return nil, fmt.Errorf("%s: extractor produced an empty vocabulary", StageTermExtraction)
	}
	if rows, _ := docTerm.Dims(); rows != n {
		return nil, fmt.Errorf("%s: %d matrix rows for %d documents", StageTermExtraction, rows, n)
	}

	termVectors, err := m.opts.Encoder.Encode(ctx, vocab)
	if err != nil {
		return nil, fmt.Errorf("%s: encoding vocabulary: %w", StageTermExtraction, err)
	}
	vocabEmbeddings, err := EmbeddingMatrix(termVectors)
	if err != nil {
		return nil, fmt.Errorf("%s: encoding vocabulary: %w", StageTermExtraction, err)
	}

	m.progress(StageReduction)
	reduced, err := m.opts.Reducer.FitTransform(embeddings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageReduction, err)
	}

	m.progress(StageClustering)
	labels, err := m.opts.Clusterer.FitPredict(reduced)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageClustering, err)
	}
	if len(labels) != n {
		return nil, fmt.Errorf("%s: %d labels for %d documents", StageClustering, len(labels), n)
	}

	m.progress(StageEstimation)
	result, err := m.estimate(labels, embeddings, docTerm, vocab, vocabEmbeddings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", StageEstimation, err)
	}

	if m.opts.ReduceTo > 0 {
		m.progress(StageMerging)
		mapping := MergeMapping(result.TopicVectors, result.Classes, m.opts.ReduceTo)
		merged := mapping.Apply(labels)

		// Merged topic statistics are recomputed from raw data, never
		// aggregated from the pre-merge estimates.
		m.progress(StageEstimation)
		result, err = m.estimate(merged, embeddings, docTerm, vocab, vocabEmbeddings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", StageEstimation, err)
		}
		result.Merged = mapping
	}

	return result, nil
}

// estimate computes all per-topic statistics for one label partition.
func (m *Model) estimate(labels []Label, embeddings, docTerm *mat.Dense, vocab []string, vocabEmbeddings *mat.Dense) (*FitResult, error) {
	classes := Classes(labels)
	vectors := TopicVectors(labels, embeddings, classes)

	var importance *mat.Dense
	var err error
	switch m.opts.Importance {
	case StrategyCentroid:
		importance, err = CentroidSimilarity(vectors, vocabEmbeddings)
	default:
		importance, err = CTFIDF(labels, classes, docTerm)
	}
	if err != nil {
		return nil, err
	}

	return &FitResult{
		Labels:          labels,
		Classes:         classes,
		TopicVectors:    vectors,
		TopicSizes:      Sizes(labels, classes),
		Importance:      importance,
		Vocabulary:      vocab,
		VocabEmbeddings: vocabEmbeddings,
	}, nil
}

func (m *Model) progress(s Stage) {
	if m.opts.Progress != nil {
		m.opts.Progress(s)
	}
}

// EmbeddingMatrix converts encoder output into a dense row-major matrix.
// All vectors must share one dimensionality.
func EmbeddingMatrix(vectors [][]float32) (*mat.Dense, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no embedding vectors")
	}
	d := len(vectors[0])
	if d == 0 {
		return nil, fmt.Errorf("zero-dimensional embedding vectors")
	}
	out := mat.NewDense(len(vectors), d, nil)
	for i, vec := range vectors {
		if len(vec) != d {
			return nil, fmt.Errorf("embedding row %d has %d dimensions, want %d", i, len(vec), d)
		}
		for j, x := range vec {
			out.Set(i, j, float64(x))
		}
	}
	return out, nil
}
