// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package similarity implements a TF-IDF vector space model over condition
// documents.
package similarity

import (
	"math"
	"slices"

	"github.com/poiesic/symptomatch/analysis"
)

// Document is one unit of the corpus: a condition ID and its text.
type Document struct {
	ID   string
	Text string
}

// entry is one non-zero component of a sparse vector.
type entry struct {
	term   int
	weight float64
}

// vector is a sparse vector sorted by term index.
type vector []entry

// Index is an immutable TF-IDF model fitted on a fixed corpus. Term weights
// are binary presence times smoothed inverse document frequency,
// idf(t) = ln((1+n)/(1+df(t))) + 1, and every vector is L2-normalised.
// It is safe for concurrent use.
type Index struct {
	analyzer *analysis.Analyzer
	vocab    map[string]int
	idf      []float64
	ids      []string
	docs     []vector
}

// NewIndex fits the model on docs. The analyzer decides tokenisation and
// stemming; nil uses plain analysis.Tokenize.
func NewIndex(docs []Document, analyzer *analysis.Analyzer) *Index {
	idx := &Index{
		analyzer: analyzer,
		vocab:    make(map[string]int),
		ids:      make([]string, len(docs)),
		docs:     make([]vector, len(docs)),
	}

	termSets := make([][]string, len(docs))
	var df []int
	for i, doc := range docs {
		idx.ids[i] = doc.ID
		terms := uniqueSorted(analyzer.Terms(doc.Text))
		termSets[i] = terms
		for _, term := range terms {
			t, ok := idx.vocab[term]
			if !ok {
				t = len(df)
				idx.vocab[term] = t
				df = append(df, 0)
			}
			df[t]++
		}
	}

	n := float64(len(docs))
	idx.idf = make([]float64, len(df))
	for t, count := range df {
		idx.idf[t] = math.Log((1+n)/(1+float64(count))) + 1
	}

	for i, terms := range termSets {
		idx.docs[i] = idx.weigh(terms)
	}
	return idx
}

// VocabularySize returns the number of distinct terms in the fitted corpus.
func (idx *Index) VocabularySize() int {
	return len(idx.vocab)
}

// Len returns the number of documents.
func (idx *Index) Len() int {
	return len(idx.ids)
}

// transform maps text into the fitted vector space. Terms outside the
// vocabulary are ignored.
func (idx *Index) transform(text string) vector {
	return idx.weigh(uniqueSorted(idx.analyzer.Terms(text)))
}

func (idx *Index) weigh(terms []string) vector {
	v := make(vector, 0, len(terms))
	for _, term := range terms {
		t, ok := idx.vocab[term]
		if !ok {
			continue
		}
		v = append(v, entry{term: t, weight: idx.idf[t]})
	}
	slices.SortFunc(v, func(a, b entry) int { return a.term - b.term })
	return normalize(v)
}

// Scores returns the cosine similarity between text and every document,
// keyed by document ID. Each score is in [0,1]; a document or query without
// known terms scores 0.
func (idx *Index) Scores(text string) map[string]float64 {
	q := idx.transform(text)
	scores := make(map[string]float64, len(idx.ids))
	for i, id := range idx.ids {
		scores[id] = clamp01(dot(q, idx.docs[i]))
	}
	return scores
}

// dot merges two term-sorted sparse vectors. Iteration order is fixed, so the
// result is bit-for-bit reproducible.
func dot(a, b vector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i].term < b[j].term:
			i++
		case a[i].term > b[j].term:
			j++
		default:
			sum += a[i].weight * b[j].weight
			i++
			j++
		}
	}
	return sum
}

func normalize(v vector) vector {
	var sumSquares float64
	for _, e := range v {
		sumSquares += e.weight * e.weight
	}
	if sumSquares == 0 {
		return v
	}
	norm := math.Sqrt(sumSquares)
	for i := range v {
		v[i].weight /= norm
	}
	return v
}

func uniqueSorted(terms []string) []string {
	slices.Sort(terms)
	return slices.Compact(terms)
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
