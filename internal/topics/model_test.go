package topics

import (
	"context"
	"fmt"
	"testing"

	"gonum.org/v1/gonum/mat"
)

type stubEncoder struct {
	calls [][]string
	fail  bool
}

func (s *stubEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	if s.fail {
		return nil, fmt.Errorf("encoder down")
	}
	s.calls = append(s.calls, texts)
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{float32(i + 1), 1}
	}
	return vectors, nil
}

type stubVectorizer struct {
	docTerm *mat.Dense
	vocab   []string
	err     error
}

func (s stubVectorizer) FitTransform(docs []string) (*mat.Dense, []string, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.docTerm, s.vocab, nil
}

type passReducer struct{}

func (passReducer) FitTransform(m *mat.Dense) (*mat.Dense, error) { return m, nil }

type stubClusterer struct {
	labels []Label
	err    error
}

func (s stubClusterer) FitPredict(m *mat.Dense) ([]Label, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.labels, nil
}

func uniformDocTerm(n, v int) *mat.Dense {
	data := make([]float64, n*v)
	for i := range data {
		data[i] = 1
	}
	return mat.NewDense(n, v, data)
}

func validOptions(n int, labels []Label) Options {
	return Options{
		Encoder:    &stubEncoder{},
		Vectorizer: stubVectorizer{docTerm: uniformDocTerm(n, 2), vocab: []string{"alpha", "beta"}},
		Reducer:    passReducer{},
		Clusterer:  stubClusterer{labels: labels},
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	base := validOptions(2, []Label{0, 0})

	missing := []func(Options) Options{
		func(o Options) Options { o.Encoder = nil; return o },
		func(o Options) Options { o.Vectorizer = nil; return o },
		func(o Options) Options { o.Reducer = nil; return o },
		func(o Options) Options { o.Clusterer = nil; return o },
	}
	for i, strip := range missing {
		if _, err := New(strip(base)); err == nil {
			t.Fatalf("case %d: expected error for missing collaborator", i)
		}
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	opts := validOptions(2, []Label{0, 0})
	opts.Importance = Strategy("bogus")
	if _, err := New(opts); err == nil {
		t.Fatal("expected error for unknown strategy")
	}

	opts = validOptions(2, []Label{0, 0})
	opts.ReduceTo = -3
	if _, err := New(opts); err == nil {
		t.Fatal("expected error for negative reduction target")
	}
}

func TestFitPrecomputedEmbeddingsSkipEncoding(t *testing.T) {
	encoder := &stubEncoder{}
	opts := validOptions(3, []Label{0, 0, 1})
	opts.Encoder = encoder

	model, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	docs := []string{"a", "b", "c"}
	embeddings := mat.NewDense(3, 2, []float64{
		1, 0,
		0.9, 0.1,
		0, 1,
	})
	result, err := model.Fit(context.Background(), docs, embeddings)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	// Only the vocabulary is encoded; the documents never are.
	if len(encoder.calls) != 1 {
		t.Fatalf("encoder called %d times, want 1 (vocabulary only)", len(encoder.calls))
	}
	if len(encoder.calls[0]) != 2 {
		t.Fatalf("encoder received %d texts, want the 2 vocabulary terms", len(encoder.calls[0]))
	}
	if len(result.Classes) != 2 {
		t.Fatalf("got %d classes, want 2", len(result.Classes))
	}
}

func TestFitEmbeddingRowMismatch(t *testing.T) {
	model, err := New(validOptions(3, []Label{0, 0, 1}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	embeddings := mat.NewDense(2, 2, nil)
	if _, err := model.Fit(context.Background(), []string{"a", "b", "c"}, embeddings); err == nil {
		t.Fatal("expected error for embedding/document count mismatch")
	}
}

func TestFitCollaboratorFailureReturnsNothing(t *testing.T) {
	opts := validOptions(2, nil)
	opts.Clusterer = stubClusterer{err: fmt.Errorf("no density")}

	model, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := model.Fit(context.Background(), []string{"a", "b"}, mat.NewDense(2, 2, []float64{1, 0, 0, 1}))
	if err == nil {
		t.Fatal("expected clustering failure to propagate")
	}
	if result != nil {
		t.Fatalf("failed fit returned partial state: %+v", result)
	}
}

func TestFitNoDocuments(t *testing.T) {
	model, err := New(validOptions(1, []Label{0}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := model.Fit(context.Background(), nil, nil); err == nil {
		t.Fatal("expected error for empty corpus")
	}
}

func TestFitMergeReestimates(t *testing.T) {
	// Topics 0 and 1 share a direction; topic 2 is orthogonal. Merging to 2
	// must collapse 0 and 1 and recompute sizes from the merged labels.
	labels := []Label{0, 0, 1, 1, 2, 2}
	opts := Options{
		Encoder:    &stubEncoder{},
		Vectorizer: stubVectorizer{docTerm: uniformDocTerm(6, 2), vocab: []string{"alpha", "beta"}},
		Reducer:    passReducer{},
		Clusterer:  stubClusterer{labels: labels},
		ReduceTo:   2,
	}

	var stages []Stage
	opts.Progress = func(s Stage) { stages = append(stages, s) }

	model, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	embeddings := mat.NewDense(6, 2, []float64{
		1, 0,
		0.9, 0.1,
		0.95, 0.05,
		1, 0.1,
		0, 1,
		0.1, 1,
	})
	docs := []string{"a", "b", "c", "d", "e", "f"}
	result, err := model.Fit(context.Background(), docs, embeddings)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if result.Merged == nil {
		t.Fatal("expected a merge mapping on the result")
	}
	if len(result.Classes) != 2 {
		t.Fatalf("got %d merged classes, want 2", len(result.Classes))
	}
	if result.TopicSizes[0]+result.TopicSizes[1] != 6 {
		t.Fatalf("merged sizes %v do not sum to 6", result.TopicSizes)
	}
	if result.TopicSizes[0] != 4 || result.TopicSizes[1] != 2 {
		t.Fatalf("merged sizes %v, want [4 2]", result.TopicSizes)
	}

	// Estimation must run twice: once pre-merge, once on merged labels.
	estimations := 0
	for _, s := range stages {
		if s == StageEstimation {
			estimations++
		}
	}
	if estimations != 2 {
		t.Fatalf("estimation ran %d times, want 2", estimations)
	}
}

func TestFitMergeUnreachableTargetKeepsIdentity(t *testing.T) {
	opts := validOptions(2, []Label{0, 1})
	opts.ReduceTo = 5

	model, err := New(opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	result, err := model.Fit(context.Background(), []string{"a", "b"}, mat.NewDense(2, 2, []float64{1, 0, 0, 1}))
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if result.Merged == nil || !result.Merged.Identity() {
		t.Fatalf("expected identity merge mapping, got %v", result.Merged)
	}
	if len(result.Classes) != 2 {
		t.Fatalf("got %d classes, want 2", len(result.Classes))
	}
}

func TestEmbeddingMatrixValidation(t *testing.T) {
	if _, err := EmbeddingMatrix(nil); err == nil {
		t.Fatal("expected error for no vectors")
	}
	if _, err := EmbeddingMatrix([][]float32{{}}); err == nil {
		t.Fatal("expected error for zero-dimensional vectors")
	}
	if _, err := EmbeddingMatrix([][]float32{{1, 2}, {3}}); err == nil {
		t.Fatal("expected error for ragged vectors")
	}

	m, err := EmbeddingMatrix([][]float32{{1, 2}, {3, 4}})
	if err != nil {
		t.Fatalf("EmbeddingMatrix: %v", err)
	}
	if m.At(1, 0) != 3 {
		t.Fatalf("m[1][0] = %v, want 3", m.At(1, 0))
	}
}
