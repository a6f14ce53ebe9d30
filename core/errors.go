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

import "errors"

// Domain validation errors
var (
	// ErrInvalidCondition indicates a ConditionRecord failed validation.
	ErrInvalidCondition = errors.New("invalid condition record")

	// ErrEmptyID indicates the ID field is empty.
	ErrEmptyID = errors.New("condition id cannot be empty")

	// ErrEmptyNames indicates a condition has no usable name.
	ErrEmptyNames = errors.New("condition names cannot be empty")

	// ErrEmptySpecialist indicates the Specialist field is empty.
	ErrEmptySpecialist = errors.New("condition specialist cannot be empty")

	// ErrEmptyUrgency indicates the Urgency field is empty.
	ErrEmptyUrgency = errors.New("condition urgency cannot be empty")

	// ErrUnsupportedLanguage indicates a per-language field uses a language
	// outside SupportedLanguages.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrDuplicateSymptom indicates a symptom phrase repeats within one condition.
	ErrDuplicateSymptom = errors.New("duplicate symptom phrase")

	// ErrDuplicateID indicates two conditions share an ID.
	ErrDuplicateID = errors.New("duplicate condition id")

	// ErrEmptyKnowledgeBase indicates a knowledge base without conditions.
	ErrEmptyKnowledgeBase = errors.New("knowledge base has no conditions")
)
