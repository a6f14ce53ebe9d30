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
	"encoding/binary"
	"hash"
	"slices"

	"github.com/go-crypt/x/blake2b"
)

// Fingerprint computes a deterministic 64-bit BLAKE2b digest of a knowledge
// base. Records are hashed in declaration order and per-language fields in
// SupportedLanguages order, so identical knowledge bases always produce
// identical fingerprints.
func Fingerprint(records []*ConditionRecord) uint64 {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	for _, record := range records {
		if record == nil {
			continue
		}
		writeField(h, record.ID)
		writeList(h, record.Names)
		for _, lang := range languageKeys(record) {
			writeField(h, string(lang))
			writeList(h, record.Symptoms[lang])
			writeField(h, record.Description[lang])
			if advice, ok := record.Advice[lang]; ok {
				writeField(h, advice)
			} else {
				writeLen(h, -1)
			}
		}
		writeField(h, record.Specialist)
		writeField(h, string(record.Urgency))
	}
	return binary.LittleEndian.Uint64(h.Sum(nil))
}

// languageKeys returns every language used by the record, supported ones
// first in canonical order, then any others sorted.
func languageKeys(record *ConditionRecord) []Language {
	seen := make(map[Language]struct{})
	for lang := range record.Symptoms {
		seen[lang] = struct{}{}
	}
	for lang := range record.Description {
		seen[lang] = struct{}{}
	}
	for lang := range record.Advice {
		seen[lang] = struct{}{}
	}

	keys := make([]Language, 0, len(seen))
	for _, lang := range SupportedLanguages {
		if _, ok := seen[lang]; ok {
			keys = append(keys, lang)
			delete(seen, lang)
		}
	}
	rest := make([]Language, 0, len(seen))
	for lang := range seen {
		rest = append(rest, lang)
	}
	slices.Sort(rest)
	return append(keys, rest...)
}

// Length prefixes keep ("ab","c") and ("a","bc") apart.
func writeField(h hash.Hash, s string) {
	writeLen(h, len(s))
	h.Write([]byte(s))
}

func writeList(h hash.Hash, items []string) {
	writeLen(h, len(items))
	for _, item := range items {
		writeField(h, item)
	}
}

func writeLen(h hash.Hash, n int) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(int64(n)))
	h.Write(buf[:])
}
