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


// Package search ranks knowledge-base conditions against free-text symptom
// descriptions.
//
// The Ranker resolves the query language and then scores every condition with
// three signals computed in that language:
//   - TF-IDF cosine similarity against the condition document
//   - Token-set fuzzy ratio against the same document
//   - Whether any registered symptom phrase occurs in the text
//
// The signals are fused by a fixed weighted sum and the single best condition
// is returned.
package search
