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


package core

import (
	"strings"
)

// Language is a base ISO 639-1 language code understood by the knowledge base.
type Language string

const (
	English Language = "en"
	Hindi   Language = "hi"
	Bengali Language = "bn"
)

// SupportedLanguages is the fixed set of languages every knowledge base shares.
// The order is the order in which per-language models are built.
var SupportedLanguages = []Language{English, Hindi, Bengali}

// IsSupported reports whether lang is one of SupportedLanguages.
func (lang Language) IsSupported() bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}

// Urgency is a categorical severity marker attached to a condition.
type Urgency string

// Known urgency markers. Knowledge bases may use other values; those have
// level 0.
const (
	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

// Level returns the ordinal of a known urgency marker (1-4), or 0 when the
// marker is not one of the known values.
func (u Urgency) Level() int {
	switch Urgency(strings.ToLower(string(u))) {
	case UrgencyLow:
		return 1
	case UrgencyMedium:
		return 2
	case UrgencyHigh:
		return 3
	case UrgencyEmergency:
		return 4
	}
	return 0
}

// NoAdviceAvailable is emitted in a RankResult when the matched condition has
// no advice text for the detected language.
const NoAdviceAvailable = "no advice available"

// ConditionRecord is one medical condition in the knowledge base.
type ConditionRecord struct {
	ID          string
	Names       []string
	Symptoms    map[Language][]string // Ordered symptom phrases per language
	Description map[Language]string
	Advice      map[Language]string // May be missing for some languages
	Specialist  string
	Urgency     Urgency
}

// Document returns the text compared against queries in the given language:
// the symptom phrases followed by the description, space separated.
func (c *ConditionRecord) Document(lang Language) string {
	return strings.Join(c.Symptoms[lang], " ") + " " + c.Description[lang]
}

// AdviceFor returns the advice for lang, or NoAdviceAvailable.
func (c *ConditionRecord) AdviceFor(lang Language) string {
	advice, ok := c.Advice[lang]
	if !ok || strings.TrimSpace(advice) == "" {
		return NoAdviceAvailable
	}
	return advice
}

// RankResult is the best matching condition for a single query.
type RankResult struct {
	ConditionID     string   `json:"id"`
	Score           float64  `json:"score"`
	MatchedSymptoms []string `json:"matched_symptoms"` // Unordered set
	Names           []string `json:"names"`
	Advice          string   `json:"advice"`
	Specialist      string   `json:"specialist"`
	Urgency         Urgency  `json:"urgency"`
}
