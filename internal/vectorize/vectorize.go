// Package vectorize provides term extraction over a document corpus.
//
// It wraps the nlp package's CountVectoriser, which tokenizes documents,
// builds an ordered deduplicated vocabulary, and counts term occurrences.
// The vectoriser's term-major output is transposed into the document-major
// dense matrix the estimation engine works with.
package vectorize

import (
	"fmt"

	"github.com/james-bowman/nlp"
	"gonum.org/v1/gonum/mat"
)

// CountVectorizer turns documents into a document×term count matrix and the
// vocabulary its columns refer to. Terms on the stop list are excluded.
type CountVectorizer struct {
	StopWords []string
}

// FitTransform extracts the vocabulary and counts term occurrences per
// document. Column j of the returned matrix corresponds to vocab[j].
func (v CountVectorizer) FitTransform(docs []string) (*mat.Dense, []string, error) {
	vectoriser := nlp.NewCountVectoriser(v.StopWords...)
	termDoc, err := vectoriser.FitTransform(docs...)
	if err != nil {
		return nil, nil, fmt.Errorf("count vectorizer: %w", err)
	}

	// Vocabulary maps term -> column index; invert it into ordered form.
	vocab := make([]string, len(vectoriser.Vocabulary))
	for term, idx := range vectoriser.Vocabulary {
		vocab[idx] = term
	}

	terms, n := termDoc.Dims()
	if terms != len(vocab) {
		return nil, nil, fmt.Errorf("count vectorizer: %d matrix rows for %d vocabulary terms", terms, len(vocab))
	}

	docTerm := mat.NewDense(n, terms, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < terms; j++ {
			docTerm.Set(i, j, termDoc.At(j, i))
		}
	}
	return docTerm, vocab, nil
}
