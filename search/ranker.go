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


package search

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/poiesic/symptomatch/analysis"
	"github.com/poiesic/symptomatch/core"
	"github.com/poiesic/symptomatch/fuzzy"
	"github.com/poiesic/symptomatch/keyword"
	"github.com/poiesic/symptomatch/language"
	"github.com/poiesic/symptomatch/similarity"
)

// Fusion weights. They sum to 1.0, so a fused score stays in [0,1].
const (
	WeightSimilarity = 0.60
	WeightFuzzy      = 0.25
	WeightKeyword    = 0.15
)

// Fuse combines the three signals of one condition. Any keyword hit
// contributes the full keyword weight regardless of how many phrases matched.
func Fuse(sim, ratio float64, matched int) float64 {
	score := WeightSimilarity*sim + WeightFuzzy*ratio
	if matched > 0 {
		score += WeightKeyword
	}
	return min(max(score, 0), 1)
}

// bundle holds every model of one language so the signals cannot drift apart.
type bundle struct {
	spotter *keyword.Spotter
	index   *similarity.Index
	corpus  *fuzzy.Corpus
}

// Ranker scores a fixed set of conditions against query text. All models are
// built in NewRanker and never modified, so a Ranker is safe for concurrent
// use.
type Ranker struct {
	conditions []*core.ConditionRecord // Declaration order, used for tie-breaks
	bundles    map[core.Language]*bundle
	detector   language.Detector
	resolver   *language.Resolver
	config     *Config
	metrics    *Metrics
	logger     *slog.Logger
}

// Option configures a Ranker.
type Option func(*Ranker) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithDetector sets the language detector.
// Default is language.NewScriptDetector().
func WithDetector(detector language.Detector) Option {
	return func(r *Ranker) error {
		if detector == nil {
			detector = language.NewScriptDetector()
		}
		r.detector = detector
		return nil
	}
}

// WithConfig sets the ranking configuration. The config is validated.
// Default is DefaultConfig().
func WithConfig(cfg *Config) Option {
	return func(r *Ranker) error {
		if cfg == nil {
			cfg = DefaultConfig()
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		r.config = cfg
		return nil
	}
}

// WithMetrics records ranking metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(r *Ranker) error {
		r.metrics = metrics
		return nil
	}
}

// NewRanker validates conditions and builds the keyword, similarity and fuzzy
// models of every supported language. An empty condition list is an error.
func NewRanker(conditions []*core.ConditionRecord, opts ...Option) (*Ranker, error) {
	if err := core.ValidateKnowledgeBase(conditions); err != nil {
		if errors.Is(err, core.ErrEmptyKnowledgeBase) {
			return nil, ErrEmptyKnowledgeBase
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidKnowledgeBase, err)
	}

	r := &Ranker{
		conditions: slices.Clone(conditions),
		bundles:    make(map[core.Language]*bundle, len(core.SupportedLanguages)),
		detector:   language.NewScriptDetector(),
		config:     DefaultConfig(),
		logger:     slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	resolver, err := language.NewResolver(r.detector,
		language.FallbackPolicy{Default: r.config.DefaultLanguage}, r.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	r.resolver = resolver

	for _, lang := range core.SupportedLanguages {
		r.bundles[lang] = r.buildBundle(lang)
	}

	r.logger.Debug("ranker ready",
		"conditions", len(r.conditions),
		"defaultLanguage", r.config.DefaultLanguage,
		"stemEnglish", r.config.StemEnglish)
	return r, nil
}

func (r *Ranker) buildBundle(lang core.Language) *bundle {
	simDocs := make([]similarity.Document, len(r.conditions))
	fuzzyDocs := make([]fuzzy.Document, len(r.conditions))
	for i, c := range r.conditions {
		text := c.Document(lang)
		simDocs[i] = similarity.Document{ID: c.ID, Text: text}
		fuzzyDocs[i] = fuzzy.Document{ID: c.ID, Text: text}
	}

	analyzer := analysis.NewAnalyzer(lang, analysis.WithEnglishStemming(r.config.StemEnglish))
	b := &bundle{
		spotter: keyword.NewSpotter(lang, r.conditions),
		index:   similarity.NewIndex(simDocs, analyzer),
		corpus:  fuzzy.NewCorpus(fuzzyDocs),
	}
	r.logger.Debug("built language models",
		"language", lang,
		"patterns", b.spotter.Size(),
		"vocabulary", b.index.VocabularySize())
	return b
}

// Len returns the number of conditions.
func (r *Ranker) Len() int {
	return len(r.conditions)
}

// Conditions returns the conditions in declaration order. The records are
// shared and must not be modified.
func (r *Ranker) Conditions() []*core.ConditionRecord {
	return slices.Clone(r.conditions)
}

// Rank returns the resolved language of text and the best-matching
// condition. Every valid query yields exactly one result; a low score signals
// low confidence.
func (r *Ranker) Rank(text string) (core.Language, *core.RankResult, error) {
	return r.RankWithMonitor(text, nil)
}

// RankWithMonitor ranks text like Rank and reports intermediate signals to
// monitor.
func (r *Ranker) RankWithMonitor(text string, monitor RankMonitor) (core.Language, *core.RankResult, error) {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if strings.TrimSpace(text) == "" {
		r.metrics.reject()
		return "", nil, ErrEmptyQuery
	}

	started := time.Now()
	monitor.Start(text)

	resolution := r.resolver.Resolve(text)
	monitor.LanguageResolved(resolution)
	lang := resolution.Language
	b := r.bundles[lang]

	matches := b.spotter.Spot(text)
	monitor.KeywordsSpotted(matches)

	similarities := b.index.Scores(text)
	ratios := b.corpus.Scores(text)

	var best *core.ConditionRecord
	bestScore := -1.0
	for _, c := range r.conditions {
		signals := Signals{
			ConditionID: c.ID,
			Similarity:  similarities[c.ID],
			Fuzzy:       ratios[c.ID],
			Matched:     matches.Count(c.ID),
		}
		signals.Score = Fuse(signals.Similarity, signals.Fuzzy, signals.Matched)
		monitor.ConditionScored(signals)

		// Strict comparison keeps the earliest condition on ties
		if signals.Score > bestScore {
			best = c
			bestScore = signals.Score
		}
	}

	matched := slices.Clone(matches[best.ID])
	if matched == nil {
		matched = []string{}
	}
	result := &core.RankResult{
		ConditionID:     best.ID,
		Score:           bestScore,
		MatchedSymptoms: matched,
		Names:           slices.Clone(best.Names),
		Advice:          best.AdviceFor(lang),
		Specialist:      best.Specialist,
		Urgency:         best.Urgency,
	}
	monitor.Finish(lang, result)

	elapsed := time.Since(started)
	r.metrics.observe(lang, resolution.Fallback, elapsed)
	r.logger.Debug("ranked query",
		"language", lang,
		"fallback", resolution.Fallback,
		"condition", result.ConditionID,
		"score", result.Score,
		"elapsed", elapsed)
	return lang, result, nil
}
