package search

import (
	"github.com/poiesic/symptomatch/core"
	"github.com/poiesic/symptomatch/keyword"
	"github.com/poiesic/symptomatch/language"
)

// Signals is the per-condition score breakdown of one query.
type Signals struct {
	ConditionID string
	Similarity  float64
	Fuzzy       float64
	Matched     int
	Score       float64
}

// RankMonitor provides hooks to observe the ranking process.
// Implement this interface to inspect intermediate signals of a query.
type RankMonitor interface {
	Start(text string)
	LanguageResolved(resolution language.Resolution)
	KeywordsSpotted(matches keyword.Matches)
	ConditionScored(signals Signals)
	Finish(lang core.Language, result *core.RankResult)
}

// noopMonitor is a no-op implementation of RankMonitor
type noopMonitor struct{}

var _ RankMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                             {}
func (n *noopMonitor) LanguageResolved(_ language.Resolution)     {}
func (n *noopMonitor) KeywordsSpotted(_ keyword.Matches)          {}
func (n *noopMonitor) ConditionScored(_ Signals)                  {}
func (n *noopMonitor) Finish(_ core.Language, _ *core.RankResult) {}
