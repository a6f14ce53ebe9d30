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

	"github.com/poiesic/symptomatch/core"
)

var (
	// ErrEmptyKnowledgeBase is returned when a ranker is built without conditions.
	ErrEmptyKnowledgeBase = fmt.Errorf("search: %w", core.ErrEmptyKnowledgeBase)

	// ErrInvalidKnowledgeBase is returned when a condition fails validation.
	ErrInvalidKnowledgeBase = errors.New("search: invalid knowledge base")

	// ErrEmptyQuery is returned for blank query text.
	ErrEmptyQuery = errors.New("search: query text is empty")

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("search: invalid config")
)
