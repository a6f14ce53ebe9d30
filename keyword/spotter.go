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


// Package keyword finds registered symptom phrases in query text.
package keyword

import (
	"cmp"
	"slices"
	"unicode/utf8"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
	"github.com/poiesic/symptomatch/analysis"
	"github.com/poiesic/symptomatch/core"
)

// Tag identifies a registered phrase: the condition that declared it and the
// phrase as written in the knowledge base.
type Tag struct {
	ConditionID string
	Phrase      string
}

// Matches maps a condition ID to the distinct phrases of that condition found
// in a text. Conditions without a hit are absent.
type Matches map[string][]string

// Count returns the number of distinct phrases matched for a condition.
func (m Matches) Count(conditionID string) int {
	return len(m[conditionID])
}

// Spotter is an immutable multi-pattern matcher for one language. It is safe
// for concurrent use.
type Spotter struct {
	lang     core.Language
	matcher  *ahocorasick.AhoCorasick
	patterns []string // Normalised phrases, indexed like the automaton's patterns
	tags     [][]Tag  // Conditions registering each pattern, in declaration order
}

// NewSpotter registers every symptom phrase of every condition in lang.
// Phrases are normalised with analysis.Normalize, so matching ignores case and
// whitespace differences. A phrase declared by several conditions is one
// pattern carrying several tags; a condition is tagged at most once per
// pattern.
func NewSpotter(lang core.Language, conditions []*core.ConditionRecord) *Spotter {
	s := &Spotter{lang: lang}

	index := make(map[string]int)
	for _, c := range conditions {
		for _, phrase := range c.Symptoms[lang] {
			key := analysis.Normalize(phrase)
			if key == "" {
				continue
			}
			i, ok := index[key]
			if !ok {
				i = len(s.patterns)
				index[key] = i
				s.patterns = append(s.patterns, key)
				s.tags = append(s.tags, nil)
			}
			if !slices.ContainsFunc(s.tags[i], func(t Tag) bool { return t.ConditionID == c.ID }) {
				s.tags[i] = append(s.tags[i], Tag{ConditionID: c.ID, Phrase: phrase})
			}
		}
	}

	if len(s.patterns) == 0 {
		return s
	}

	// Overlapping iteration needs standard semantics. Word boundaries and the
	// leftmost-longest choice are applied in Spot.
	builder := ahocorasick.NewAhoCorasickBuilder(ahocorasick.Opts{
		AsciiCaseInsensitive: false, // Text and patterns are already lowercased
		MatchKind:            ahocorasick.StandardMatch,
		DFA:                  true,
	})
	matcher := builder.Build(s.patterns)
	s.matcher = &matcher
	return s
}

// Language returns the language the spotter was built for.
func (s *Spotter) Language() core.Language {
	return s.lang
}

// Size returns the number of distinct patterns.
func (s *Spotter) Size() int {
	return len(s.patterns)
}

// occurrence is a whole-word pattern hit in the normalised text.
type occurrence struct {
	pattern    int
	start, end int
}

// Spot scans text once and returns the distinct phrases found per condition.
// Only whole-word occurrences count. Occurrences do not overlap: scanning left
// to right, the longest whole-word phrase at a position wins. Repeated
// occurrences of a phrase are reported once.
func (s *Spotter) Spot(text string) Matches {
	found := make(Matches)
	if s.matcher == nil {
		return found
	}

	haystack := analysis.Normalize(text)
	if haystack == "" {
		return found
	}

	seen := make(map[int]struct{})
	for _, occ := range s.occurrences(haystack) {
		if _, dup := seen[occ.pattern]; dup {
			continue
		}
		seen[occ.pattern] = struct{}{}
		for _, tag := range s.tags[occ.pattern] {
			found[tag.ConditionID] = append(found[tag.ConditionID], tag.Phrase)
		}
	}
	return found
}

// occurrences returns the selected non-overlapping whole-word hits in text
// order.
func (s *Spotter) occurrences(haystack string) []occurrence {
	var candidates []occurrence
	iter := s.matcher.IterOverlapping(haystack)
	for m := iter.Next(); m != nil; m = iter.Next() {
		if !wholeWord(haystack, m.Start(), m.End()) {
			continue
		}
		candidates = append(candidates, occurrence{pattern: m.Pattern(), start: m.Start(), end: m.End()})
	}

	slices.SortFunc(candidates, func(a, b occurrence) int {
		return cmp.Or(
			cmp.Compare(a.start, b.start),
			cmp.Compare(b.end, a.end),
			cmp.Compare(a.pattern, b.pattern),
		)
	})

	selected := candidates[:0]
	next := 0
	for _, c := range candidates {
		if c.start < next {
			continue
		}
		selected = append(selected, c)
		next = c.end
	}
	return selected
}

// wholeWord reports whether text[start:end] is not glued to a word rune on
// either side.
func wholeWord(text string, start, end int) bool {
	if start > 0 {
		if r, _ := utf8.DecodeLastRuneInString(text[:start]); analysis.IsWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		if r, _ := utf8.DecodeRuneInString(text[end:]); analysis.IsWordRune(r) {
			return false
		}
	}
	return true
}
