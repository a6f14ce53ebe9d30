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


// Package analysis turns raw text into the normalised form and word tokens
// shared by the keyword, similarity and fuzzy signals.
package analysis

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/kljensen/snowball/english"
	"github.com/poiesic/symptomatch/core"
	"golang.org/x/text/unicode/norm"
)

// MinTokenRunes is the shortest word kept by Tokenize.
const MinTokenRunes = 2

// Normalize applies NFKC, lowercases, and collapses runs of whitespace into a
// single space. Leading and trailing whitespace is removed.
func Normalize(text string) string {
	text = norm.NFKC.String(text)
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Join(fields, " "))
}

// Tokenize normalises text and splits it into words. A word is a maximal run
// of letters, combining marks, digits or underscores; words shorter than
// MinTokenRunes are dropped. Marks count as word characters so Devanagari and
// Bengali vowel signs stay attached to their consonants.
func Tokenize(text string) []string {
	normed := Normalize(text)
	if normed == "" {
		return nil
	}

	tokens := make([]string, 0, len(normed)/4)
	start := -1
	for i, r := range normed {
		if IsWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = appendToken(tokens, normed[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = appendToken(tokens, normed[start:])
	}
	return tokens
}

func appendToken(tokens []string, tok string) []string {
	if utf8.RuneCountInString(tok) < MinTokenRunes {
		return tokens
	}
	return append(tokens, tok)
}

// IsWordRune reports whether r belongs inside a word.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r)
}

// Analyzer produces index terms for one language.
type Analyzer struct {
	stem func(string) string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithEnglishStemming reduces English terms to their Snowball (Porter2) stem.
// It has no effect on other languages.
func WithEnglishStemming(enabled bool) Option {
	return func(a *Analyzer) {
		if enabled {
			a.stem = stemEnglish
		}
	}
}

// NewAnalyzer creates an analyzer for lang. Stemming options only apply to
// languages with a stemmer.
func NewAnalyzer(lang core.Language, opts ...Option) *Analyzer {
	a := &Analyzer{}
	if lang != core.English {
		return a
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Terms tokenizes text and applies the analyzer's stemmer, if any.
func (a *Analyzer) Terms(text string) []string {
	tokens := Tokenize(text)
	if a == nil || a.stem == nil {
		return tokens
	}
	for i, tok := range tokens {
		tokens[i] = a.stem(tok)
	}
	return tokens
}

func stemEnglish(word string) string {
	return english.Stem(word, false)
}
