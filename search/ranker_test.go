package search

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/poiesic/symptomatch/core"
	"github.com/poiesic/symptomatch/keyword"
	"github.com/poiesic/symptomatch/language"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dentalConditions() []*core.ConditionRecord {
	return []*core.ConditionRecord{
		{
			ID:    "cavity",
			Names: []string{"Cavity", "Dental caries"},
			Symptoms: map[core.Language][]string{
				core.English: {"toothache", "sensitive to sweets"},
				core.Hindi:   {"दांत दर्द", "मीठा लगने पर दर्द"},
			},
			Description: map[core.Language]string{
				core.English: "Tooth decay caused by sugar and bacteria.",
				core.Hindi:   "चीनी और बैक्टीरिया से दांत की सड़न।",
			},
			Advice: map[core.Language]string{
				core.English: "Visit a dentist for a filling.",
				core.Hindi:   "फिलिंग के लिए दंत चिकित्सक से मिलें।",
			},
			Specialist: "dentist",
			Urgency:    core.UrgencyMedium,
		},
		{
			ID:    "gum_disease",
			Names: []string{"Gum disease", "Gingivitis"},
			Symptoms: map[core.Language][]string{
				core.English: {"bleeding gums", "swollen gums"},
				core.Hindi:   {"मसूड़ों से खून"},
			},
			Description: map[core.Language]string{
				core.English: "Inflammation of the gums caused by plaque.",
			},
			Advice: map[core.Language]string{
				core.English: "Brush gently and see a periodontist.",
			},
			Specialist: "periodontist",
			Urgency:    core.UrgencyLow,
		},
	}
}

func fixedDetector(lang core.Language) language.Detector {
	return language.DetectorFunc(func(string) (core.Language, error) {
		return lang, nil
	})
}

func newTestRanker(t *testing.T, opts ...Option) *Ranker {
	t.Helper()
	r, err := NewRanker(dentalConditions(), opts...)
	require.NoError(t, err)
	return r
}

// recordingMonitor captures every hook call.
type recordingMonitor struct {
	started    string
	resolution language.Resolution
	matches    keyword.Matches
	signals    map[string]Signals
	order      []string
	finished   *core.RankResult
}

func newRecordingMonitor() *recordingMonitor {
	return &recordingMonitor{signals: make(map[string]Signals)}
}

func (m *recordingMonitor) Start(text string)                          { m.started = text }
func (m *recordingMonitor) LanguageResolved(res language.Resolution)   { m.resolution = res }
func (m *recordingMonitor) KeywordsSpotted(matches keyword.Matches)    { m.matches = matches }
func (m *recordingMonitor) Finish(_ core.Language, r *core.RankResult) { m.finished = r }
func (m *recordingMonitor) ConditionScored(s Signals) {
	m.signals[s.ConditionID] = s
	m.order = append(m.order, s.ConditionID)
}

func TestNewRanker(t *testing.T) {
	t.Run("valid configuration", func(t *testing.T) {
		r, err := NewRanker(dentalConditions())
		require.NoError(t, err)
		assert.Equal(t, 2, r.Len())
		assert.Equal(t, "cavity", r.Conditions()[0].ID)
	})

	t.Run("with custom logger", func(t *testing.T) {
		_, err := NewRanker(dentalConditions(), WithLogger(slog.Default()))
		require.NoError(t, err)
	})

	t.Run("with nil logger falls back to default", func(t *testing.T) {
		_, err := NewRanker(dentalConditions(), WithLogger(nil))
		require.NoError(t, err)
	})

	t.Run("with nil detector falls back to default", func(t *testing.T) {
		_, err := NewRanker(dentalConditions(), WithDetector(nil))
		require.NoError(t, err)
	})

	t.Run("empty knowledge base", func(t *testing.T) {
		_, err := NewRanker(nil)
		assert.ErrorIs(t, err, ErrEmptyKnowledgeBase)
		assert.ErrorIs(t, err, core.ErrEmptyKnowledgeBase)

		_, err = NewRanker([]*core.ConditionRecord{})
		assert.ErrorIs(t, err, ErrEmptyKnowledgeBase)
	})

	t.Run("invalid condition", func(t *testing.T) {
		conditions := dentalConditions()
		conditions[1].Specialist = ""
		_, err := NewRanker(conditions)
		assert.ErrorIs(t, err, ErrInvalidKnowledgeBase)
		assert.ErrorIs(t, err, core.ErrEmptySpecialist)
	})

	t.Run("duplicate ids", func(t *testing.T) {
		conditions := dentalConditions()
		conditions[1].ID = "cavity"
		_, err := NewRanker(conditions)
		assert.ErrorIs(t, err, core.ErrDuplicateID)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewRanker(dentalConditions(), WithConfig(NewConfig(WithDefaultLanguage("fr"))))
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("caller slice is copied", func(t *testing.T) {
		conditions := dentalConditions()
		r, err := NewRanker(conditions)
		require.NoError(t, err)
		conditions[0] = conditions[1]
		assert.Equal(t, "cavity", r.Conditions()[0].ID)
	})
}

func TestRank_CavityScenario(t *testing.T) {
	r := newTestRanker(t)

	lang, result, err := r.Rank("I have a toothache when I eat sugar")
	require.NoError(t, err)
	assert.Equal(t, core.English, lang)
	require.NotNil(t, result)
	assert.Equal(t, "cavity", result.ConditionID)
	assert.Equal(t, []string{"toothache"}, result.MatchedSymptoms)
	assert.Equal(t, []string{"Cavity", "Dental caries"}, result.Names)
	assert.Equal(t, "Visit a dentist for a filling.", result.Advice)
	assert.Equal(t, "dentist", result.Specialist)
	assert.Equal(t, core.UrgencyMedium, result.Urgency)
	assert.GreaterOrEqual(t, result.Score, WeightKeyword)
}

func TestRank_GumScenario(t *testing.T) {
	r := newTestRanker(t)

	_, result, err := r.Rank("My gums are swollen and there are bleeding gums when I brush")
	require.NoError(t, err)
	assert.Equal(t, "gum_disease", result.ConditionID)
	assert.ElementsMatch(t, []string{"bleeding gums"}, result.MatchedSymptoms)
	assert.Equal(t, "periodontist", result.Specialist)
}

func TestRank_NoKeywordScenario(t *testing.T) {
	r := newTestRanker(t)
	monitor := newRecordingMonitor()

	_, result, err := r.RankWithMonitor("plaque and inflammation near my teeth", monitor)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, monitor.matches)
	assert.Empty(t, result.MatchedSymptoms)
	assert.NotNil(t, result.MatchedSymptoms)
	assert.Equal(t, "gum_disease", result.ConditionID)
	assert.Positive(t, result.Score)
	assert.Less(t, result.Score, 1.0-WeightKeyword+1e-9)
}

func TestRank_UndetectableFallsBack(t *testing.T) {
	t.Run("digits use default language", func(t *testing.T) {
		r := newTestRanker(t)
		monitor := newRecordingMonitor()

		lang, result, err := r.RankWithMonitor("12345 67890", monitor)
		require.NoError(t, err)
		assert.Equal(t, core.English, lang)
		assert.True(t, monitor.resolution.Fallback)
		require.NotNil(t, result)
		assert.Zero(t, monitor.signals[result.ConditionID].Similarity)
		assert.Empty(t, result.MatchedSymptoms)
	})

	t.Run("configured default language", func(t *testing.T) {
		r := newTestRanker(t, WithConfig(NewConfig(WithDefaultLanguage(core.Hindi))))
		lang, result, err := r.Rank("12345")
		require.NoError(t, err)
		assert.Equal(t, core.Hindi, lang)
		assert.Equal(t, "फिलिंग के लिए दंत चिकित्सक से मिलें।", result.Advice)
	})

	t.Run("unsupported detection", func(t *testing.T) {
		r := newTestRanker(t, WithDetector(fixedDetector("fr")))
		lang, result, err := r.Rank("toothache")
		require.NoError(t, err)
		assert.Equal(t, core.English, lang)
		assert.Equal(t, "cavity", result.ConditionID)
	})

	t.Run("locale variant collapses", func(t *testing.T) {
		r := newTestRanker(t, WithDetector(fixedDetector("hi-IN")))
		lang, _, err := r.Rank("दांत दर्द")
		require.NoError(t, err)
		assert.Equal(t, core.Hindi, lang)
	})
}

func TestRank_Hindi(t *testing.T) {
	r := newTestRanker(t, WithDetector(fixedDetector(core.Hindi)))

	lang, result, err := r.Rank("मुझे दांत दर्द है")
	require.NoError(t, err)
	assert.Equal(t, core.Hindi, lang)
	assert.Equal(t, "cavity", result.ConditionID)
	assert.Equal(t, []string{"दांत दर्द"}, result.MatchedSymptoms)

	_, result, err = r.Rank("मसूड़ों से खून आ रहा है")
	require.NoError(t, err)
	assert.Equal(t, "gum_disease", result.ConditionID)
	assert.Equal(t, core.NoAdviceAvailable, result.Advice)
}

func TestRank_MissingAdvice(t *testing.T) {
	r := newTestRanker(t, WithDetector(fixedDetector(core.Bengali)))

	lang, result, err := r.Rank("দাঁতে ব্যথা")
	require.NoError(t, err)
	assert.Equal(t, core.Bengali, lang)
	assert.Equal(t, core.NoAdviceAvailable, result.Advice)
	assert.NotEmpty(t, result.Specialist)
}

func TestRank_EmptyQuery(t *testing.T) {
	r := newTestRanker(t)
	for _, text := range []string{"", "   ", "\n\t"} {
		lang, result, err := r.Rank(text)
		assert.ErrorIs(t, err, ErrEmptyQuery)
		assert.Empty(t, lang)
		assert.Nil(t, result)
	}
}

func TestRank_Bounds(t *testing.T) {
	r := newTestRanker(t)
	queries := []string{
		"toothache",
		"toothache sensitive to sweets bleeding gums swollen gums",
		"Tooth decay caused by sugar and bacteria.",
		"the the the",
		"xyz",
		"12",
	}
	for _, q := range queries {
		monitor := newRecordingMonitor()
		_, _, err := r.RankWithMonitor(q, monitor)
		require.NoError(t, err)
		require.Len(t, monitor.signals, 2)
		for id, s := range monitor.signals {
			assert.GreaterOrEqual(t, s.Similarity, 0.0, id)
			assert.LessOrEqual(t, s.Similarity, 1.0, id)
			assert.GreaterOrEqual(t, s.Fuzzy, 0.0, id)
			assert.LessOrEqual(t, s.Fuzzy, 1.0, id)
			assert.GreaterOrEqual(t, s.Score, 0.0, id)
			assert.LessOrEqual(t, s.Score, 1.0, id)
		}
	}
}

func TestRank_EveryConditionScoredInOrder(t *testing.T) {
	r := newTestRanker(t)
	monitor := newRecordingMonitor()

	_, result, err := r.RankWithMonitor("bleeding gums", monitor)
	require.NoError(t, err)
	assert.Equal(t, "bleeding gums", monitor.started)
	assert.Equal(t, []string{"cavity", "gum_disease"}, monitor.order)
	assert.Same(t, result, monitor.finished)
	assert.Equal(t, 1, monitor.signals["gum_disease"].Matched)
	assert.Zero(t, monitor.signals["cavity"].Matched)
}

func TestRank_Deterministic(t *testing.T) {
	r := newTestRanker(t)
	other := newTestRanker(t)

	text := "sensitive to sweets and swollen gums"
	lang, first, err := r.Rank(text)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		l, res, err := r.Rank(text)
		require.NoError(t, err)
		assert.Equal(t, lang, l)
		assert.Equal(t, first, res)
	}

	l, res, err := other.Rank(text)
	require.NoError(t, err)
	assert.Equal(t, lang, l)
	assert.Equal(t, first, res)
}

func TestRank_DuplicatePhraseIdempotent(t *testing.T) {
	r := newTestRanker(t)

	_, once, err := r.Rank("I have a toothache")
	require.NoError(t, err)
	_, twice, err := r.Rank("I have a toothache, toothache, TOOTHACHE")
	require.NoError(t, err)

	assert.Equal(t, []string{"toothache"}, twice.MatchedSymptoms)
	assert.InDelta(t, once.Score, twice.Score, 1e-12)
}

func TestRank_Monotonic(t *testing.T) {
	r := newTestRanker(t)
	bases := []string{
		"I have a toothache when I eat sugar",
		"my gums are bleeding",
		"pain",
		"toothache",
	}

	for _, base := range bases {
		for _, c := range dentalConditions() {
			for _, phrase := range c.Symptoms[core.English] {
				before := newRecordingMonitor()
				after := newRecordingMonitor()
				_, _, err := r.RankWithMonitor(base, before)
				require.NoError(t, err)
				_, _, err = r.RankWithMonitor(base+" "+phrase, after)
				require.NoError(t, err)

				assert.GreaterOrEqual(t, after.signals[c.ID].Score, before.signals[c.ID].Score-1e-12,
					"%q + %q for %s", base, phrase, c.ID)
			}
		}
	}
}

func TestRank_TieKeepsDeclarationOrder(t *testing.T) {
	twin := func(id string) *core.ConditionRecord {
		return &core.ConditionRecord{
			ID:          id,
			Names:       []string{id},
			Symptoms:    map[core.Language][]string{core.English: {"jaw pain"}},
			Description: map[core.Language]string{core.English: "Pain in the jaw."},
			Specialist:  "dentist",
			Urgency:     core.UrgencyHigh,
		}
	}

	r, err := NewRanker([]*core.ConditionRecord{twin("second"), twin("first")})
	require.NoError(t, err)
	_, result, err := r.Rank("jaw pain")
	require.NoError(t, err)
	assert.Equal(t, "second", result.ConditionID)
	assert.Equal(t, []string{"jaw pain"}, result.MatchedSymptoms)
}

func TestRank_Stemming(t *testing.T) {
	plain := newTestRanker(t)
	stemmed := newTestRanker(t, WithConfig(NewConfig(WithEnglishStemming(true))))

	before := newRecordingMonitor()
	_, _, err := plain.RankWithMonitor("inflamed gum", before)
	require.NoError(t, err)
	after := newRecordingMonitor()
	_, _, err = stemmed.RankWithMonitor("inflamed gum", after)
	require.NoError(t, err)

	assert.Zero(t, before.signals["gum_disease"].Similarity)
	assert.Positive(t, after.signals["gum_disease"].Similarity)
}

func TestRank_Concurrent(t *testing.T) {
	r := newTestRanker(t)
	_, want, err := r.Rank("bleeding gums and toothache")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]*core.RankResult, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, res, err := r.Rank("bleeding gums and toothache")
			if err == nil {
				results[i] = res
			}
		}(i)
	}
	wg.Wait()

	for _, res := range results {
		assert.Equal(t, want, res)
	}
}

func TestRank_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	r := newTestRanker(t, WithMetrics(metrics))

	for _, q := range []string{"toothache", "bleeding gums", "12345"} {
		_, _, err := r.Rank(q)
		require.NoError(t, err)
	}
	_, _, err := r.Rank(" ")
	require.ErrorIs(t, err, ErrEmptyQuery)

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.queries.WithLabelValues("en")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.fallbacks))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.rejected))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.duration))
}

func TestFuse(t *testing.T) {
	tests := []struct {
		name    string
		sim     float64
		ratio   float64
		matched int
		want    float64
	}{
		{"zero", 0, 0, 0, 0},
		{"keyword only", 0, 0, 1, WeightKeyword},
		{"keyword count ignored", 0, 0, 5, WeightKeyword},
		{"similarity only", 1, 0, 0, WeightSimilarity},
		{"fuzzy only", 0, 1, 0, WeightFuzzy},
		{"all", 1, 1, 2, 1},
		{"mixed", 0.5, 0.4, 0, 0.4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Fuse(tt.sim, tt.ratio, tt.matched), 1e-9)
		})
	}

	assert.InDelta(t, 1.0, WeightSimilarity+WeightFuzzy+WeightKeyword, 1e-12)
}
