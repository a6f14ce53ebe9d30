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
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ValidateCondition validates a ConditionRecord according to domain rules.
//
// Validation rules:
//   - ID, Specialist and Urgency must not be blank
//   - Names must contain at least one non-blank name
//   - Symptoms, Description and Advice may only use SupportedLanguages
//   - Symptom phrases must be unique within a language after NFKC folding,
//     whitespace collapsing and lowercasing
//
// NOT validated:
//   - Per-language symptom lists and descriptions may be empty
//   - Advice may be missing for any language
func ValidateCondition(record *ConditionRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidCondition)
	}

	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidCondition, ErrEmptyID)
	}

	if !hasName(record.Names) {
		return fmt.Errorf("%w: %s: %w", ErrInvalidCondition, record.ID, ErrEmptyNames)
	}

	if strings.TrimSpace(record.Specialist) == "" {
		return fmt.Errorf("%w: %s: %w", ErrInvalidCondition, record.ID, ErrEmptySpecialist)
	}

	if strings.TrimSpace(string(record.Urgency)) == "" {
		return fmt.Errorf("%w: %s: %w", ErrInvalidCondition, record.ID, ErrEmptyUrgency)
	}

	for lang, phrases := range record.Symptoms {
		if !lang.IsSupported() {
			return fmt.Errorf("%w: %s: symptoms: %w %q", ErrInvalidCondition, record.ID, ErrUnsupportedLanguage, lang)
		}
		seen := make(map[string]struct{}, len(phrases))
		for _, phrase := range phrases {
			key := symptomKey(phrase)
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				return fmt.Errorf("%w: %s: %w %q", ErrInvalidCondition, record.ID, ErrDuplicateSymptom, phrase)
			}
			seen[key] = struct{}{}
		}
	}

	for lang := range record.Description {
		if !lang.IsSupported() {
			return fmt.Errorf("%w: %s: description: %w %q", ErrInvalidCondition, record.ID, ErrUnsupportedLanguage, lang)
		}
	}

	for lang := range record.Advice {
		if !lang.IsSupported() {
			return fmt.Errorf("%w: %s: advice: %w %q", ErrInvalidCondition, record.ID, ErrUnsupportedLanguage, lang)
		}
	}

	return nil
}

// ValidateKnowledgeBase validates every record and the collection as a whole.
// A knowledge base must contain at least one condition and IDs must be unique.
func ValidateKnowledgeBase(records []*ConditionRecord) error {
	if len(records) == 0 {
		return ErrEmptyKnowledgeBase
	}

	ids := make(map[string]struct{}, len(records))
	for i, record := range records {
		if err := ValidateCondition(record); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
		if _, dup := ids[record.ID]; dup {
			return fmt.Errorf("%w: %w %q", ErrInvalidCondition, ErrDuplicateID, record.ID)
		}
		ids[record.ID] = struct{}{}
	}

	return nil
}

// symptomKey folds a phrase the way the keyword index does, so two phrases
// that would become the same pattern collide here.
func symptomKey(phrase string) string {
	return strings.ToLower(strings.Join(strings.Fields(norm.NFKC.String(phrase)), " "))
}

func hasName(names []string) bool {
	for _, name := range names {
		if strings.TrimSpace(name) != "" {
			return true
		}
	}
	return false
}
