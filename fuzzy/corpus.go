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


package fuzzy

// Document is a condition ID and the text its fuzzy signal is computed on.
type Document struct {
	ID   string
	Text string
}

// Corpus holds pre-tokenised documents. It is immutable and safe for
// concurrent use.
type Corpus struct {
	ids  []string
	sets [][]string
}

// NewCorpus tokenises every document once.
func NewCorpus(docs []Document) *Corpus {
	c := &Corpus{
		ids:  make([]string, len(docs)),
		sets: make([][]string, len(docs)),
	}
	for i, doc := range docs {
		c.ids[i] = doc.ID
		c.sets[i] = tokenSet(doc.Text)
	}
	return c
}

// Len returns the number of documents.
func (c *Corpus) Len() int {
	return len(c.ids)
}

// Scores returns the token-set ratio between text and every document, keyed
// by document ID.
func (c *Corpus) Scores(text string) map[string]float64 {
	query := tokenSet(text)
	scores := make(map[string]float64, len(c.ids))
	for i, id := range c.ids {
		scores[id] = tokenSetRatio(query, c.sets[i])
	}
	return scores
}
