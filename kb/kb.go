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


// Package kb reads knowledge bases of conditions from YAML.
//
// A knowledge base file has a single top-level key:
//
//	conditions:
//	  - id: cavity
//	    names: [Cavity, Dental caries]
//	    symptoms:
//	      en: [toothache, sensitive to sweets]
//	    description:
//	      en: Tooth decay caused by sugar and bacteria.
//	    advice:
//	      en: Visit a dentist for a filling.
//	    specialist: dentist
//	    urgency: medium
//
// Condition IDs may be strings or integers. Names may be a single string, a
// list, or a mapping of language to name. Language keys are collapsed to
// their base code.
package kb

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/poiesic/symptomatch/core"
	"github.com/poiesic/symptomatch/language"
	"gopkg.in/yaml.v3"
)

// ErrLoad is wrapped by every error returned from Load and Parse.
var ErrLoad = errors.New("kb: load failed")

type file struct {
	Conditions []condition `yaml:"conditions"`
}

type condition struct {
	ID          scalar              `yaml:"id"`
	Names       names               `yaml:"names"`
	Symptoms    map[string][]string `yaml:"symptoms"`
	Description map[string]string   `yaml:"description"`
	Advice      map[string]string   `yaml:"advice"`
	Specialist  string              `yaml:"specialist"`
	Urgency     string              `yaml:"urgency"`
}

// scalar accepts any YAML scalar as a string.
type scalar string

func (s *scalar) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a scalar id", node.Line)
	}
	*s = scalar(node.Value)
	return nil
}

// names accepts a scalar, a sequence, or a mapping whose values are kept in
// document order.
type names []string

func (n *names) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*n = names{node.Value}
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*n = list
	case yaml.MappingNode:
		list := make(names, 0, len(node.Content)/2)
		for i := 1; i < len(node.Content); i += 2 {
			if node.Content[i].Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: expected a scalar name", node.Content[i].Line)
			}
			list = append(list, node.Content[i].Value)
		}
		*n = list
	default:
		return fmt.Errorf("line %d: unexpected names value", node.Line)
	}
	return nil
}

// Load reads and validates the knowledge base at path.
func Load(path string) ([]*core.ConditionRecord, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()

	records, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Parse reads and validates a knowledge base from r. Conditions keep their
// file order.
func Parse(r io.Reader) ([]*core.ConditionRecord, error) {
	var doc file
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}

	records := make([]*core.ConditionRecord, 0, len(doc.Conditions))
	for _, c := range doc.Conditions {
		records = append(records, c.record())
	}

	if err := core.ValidateKnowledgeBase(records); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	return records, nil
}

func (c condition) record() *core.ConditionRecord {
	record := &core.ConditionRecord{
		ID:          strings.TrimSpace(string(c.ID)),
		Names:       []string(c.Names),
		Symptoms:    make(map[core.Language][]string, len(c.Symptoms)),
		Description: make(map[core.Language]string, len(c.Description)),
		Advice:      make(map[core.Language]string, len(c.Advice)),
		Specialist:  strings.TrimSpace(c.Specialist),
		Urgency:     core.Urgency(strings.ToLower(strings.TrimSpace(c.Urgency))),
	}
	// Sorted so that "hi" and "hi-IN" merge the same way every time
	for _, tag := range slices.Sorted(maps.Keys(c.Symptoms)) {
		lang := language.BaseCode(tag)
		record.Symptoms[lang] = append(record.Symptoms[lang], c.Symptoms[tag]...)
	}
	for _, tag := range slices.Sorted(maps.Keys(c.Description)) {
		record.Description[language.BaseCode(tag)] = c.Description[tag]
	}
	for _, tag := range slices.Sorted(maps.Keys(c.Advice)) {
		record.Advice[language.BaseCode(tag)] = c.Advice[tag]
	}
	return record
}
