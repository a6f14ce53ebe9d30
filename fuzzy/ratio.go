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


// Package fuzzy scores approximate word overlap between a query and condition
// documents with a token-set ratio.
package fuzzy

import (
	"slices"
	"strings"

	"github.com/poiesic/symptomatch/analysis"
)

// TokenSetRatio compares the word sets of a and b and returns a similarity in
// [0,1]. Both strings are tokenised with analysis.Tokenize, so case,
// punctuation and word order do not matter. The shared words are compared
// against each side's leftover words; if every word of one side also occurs in
// the other, the ratio is 1. Blank input on either side yields 0.
func TokenSetRatio(a, b string) float64 {
	return tokenSetRatio(tokenSet(a), tokenSet(b))
}

// tokenSet returns the sorted distinct tokens of text.
func tokenSet(text string) []string {
	tokens := analysis.Tokenize(text)
	slices.Sort(tokens)
	return slices.Compact(tokens)
}

func tokenSetRatio(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	sect, diffAB, diffBA := split(a, b)
	if len(sect) > 0 && (len(diffAB) == 0 || len(diffBA) == 0) {
		return 1
	}

	ab := []rune(strings.Join(diffAB, " "))
	ba := []rune(strings.Join(diffBA, " "))
	best := normalizedSimilarity(indelDistance(ab, ba), len(ab)+len(ba))

	if len(sect) == 0 {
		return best
	}

	// "sect" vs "sect ab" differs only by the separator and the leftover
	// words, so the distance is known without running the alignment.
	sectLen := len([]rune(strings.Join(sect, " ")))
	sectAB := sectLen + 1 + len(ab)
	sectBA := sectLen + 1 + len(ba)

	best = max(best,
		normalizedSimilarity(1+len(ab), sectLen+sectAB),
		normalizedSimilarity(1+len(ba), sectLen+sectBA),
	)
	return best
}

// split partitions two sorted distinct token lists into their intersection
// and the two one-sided differences, all sorted.
func split(a, b []string) (sect, onlyA, onlyB []string) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch c := strings.Compare(a[i], b[j]); {
		case c < 0:
			onlyA = append(onlyA, a[i])
			i++
		case c > 0:
			onlyB = append(onlyB, b[j])
			j++
		default:
			sect = append(sect, a[i])
			i++
			j++
		}
	}
	onlyA = append(onlyA, a[i:]...)
	onlyB = append(onlyB, b[j:]...)
	return sect, onlyA, onlyB
}

// indelDistance is the number of insertions and deletions turning a into b:
// len(a) + len(b) - 2*LCS(a, b).
func indelDistance(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}
	return len(a) + len(b) - 2*prev[len(b)]
}

func normalizedSimilarity(dist, total int) float64 {
	if total == 0 {
		return 1
	}
	sim := 1 - float64(dist)/float64(total)
	if sim < 0 {
		return 0
	}
	return sim
}
