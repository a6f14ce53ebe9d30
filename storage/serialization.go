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


package storage

import (
	"fmt"
	"maps"
	"slices"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/symptomatch/core"
)

// ConditionMUS is the MUS serializer for core.ConditionRecord. Maps are
// written in sorted key order, so equal records encode to equal bytes.
var ConditionMUS = conditionMUS{}

type conditionMUS struct{}

func (s conditionMUS) Marshal(v core.ConditionRecord, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += marshalStrings(v.Names, bs[n:])
	n += varint.Uint64.Marshal(uint64(len(v.Symptoms)), bs[n:])
	for _, lang := range slices.Sorted(maps.Keys(v.Symptoms)) {
		n += ord.String.Marshal(string(lang), bs[n:])
		n += marshalStrings(v.Symptoms[lang], bs[n:])
	}
	n += marshalText(v.Description, bs[n:])
	n += marshalText(v.Advice, bs[n:])
	n += ord.String.Marshal(v.Specialist, bs[n:])
	n += ord.String.Marshal(string(v.Urgency), bs[n:])
	return n
}

func (s conditionMUS) Unmarshal(bs []byte) (v core.ConditionRecord, n int, err error) {
	var n1 int
	v.ID, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Names, n1, err = unmarshalStrings(bs[n:])
	n += n1
	if err != nil {
		return
	}

	count, n1, err := unmarshalCount(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Symptoms = make(map[core.Language][]string, count)
	for i := 0; i < count; i++ {
		var lang string
		lang, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
		v.Symptoms[core.Language(lang)], n1, err = unmarshalStrings(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}

	v.Description, n1, err = unmarshalText(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Advice, n1, err = unmarshalText(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Specialist, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var urgency string
	urgency, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	v.Urgency = core.Urgency(urgency)
	return
}

func (s conditionMUS) Size(v core.ConditionRecord) (size int) {
	size = ord.String.Size(v.ID)
	size += sizeStrings(v.Names)
	size += varint.Uint64.Size(uint64(len(v.Symptoms)))
	for lang, phrases := range v.Symptoms {
		size += ord.String.Size(string(lang))
		size += sizeStrings(phrases)
	}
	size += sizeText(v.Description)
	size += sizeText(v.Advice)
	size += ord.String.Size(v.Specialist)
	size += ord.String.Size(string(v.Urgency))
	return size
}

func marshalStrings(list []string, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(list)), bs)
	for _, s := range list {
		n += ord.String.Marshal(s, bs[n:])
	}
	return n
}

func unmarshalStrings(bs []byte) (list []string, n int, err error) {
	count, n, err := unmarshalCount(bs)
	if err != nil || count == 0 {
		return nil, n, err
	}
	list = make([]string, count)
	for i := range list {
		var n1 int
		list[i], n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
	}
	return list, n, nil
}

func sizeStrings(list []string) (size int) {
	size = varint.Uint64.Size(uint64(len(list)))
	for _, s := range list {
		size += ord.String.Size(s)
	}
	return size
}

func marshalText(text map[core.Language]string, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(text)), bs)
	for _, lang := range slices.Sorted(maps.Keys(text)) {
		n += ord.String.Marshal(string(lang), bs[n:])
		n += ord.String.Marshal(text[lang], bs[n:])
	}
	return n
}

func unmarshalText(bs []byte) (text map[core.Language]string, n int, err error) {
	count, n, err := unmarshalCount(bs)
	if err != nil {
		return nil, n, err
	}
	text = make(map[core.Language]string, count)
	for i := 0; i < count; i++ {
		var lang, value string
		var n1 int
		lang, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		value, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return nil, n, err
		}
		text[core.Language(lang)] = value
	}
	return text, n, nil
}

func sizeText(text map[core.Language]string) (size int) {
	size = varint.Uint64.Size(uint64(len(text)))
	for lang, value := range text {
		size += ord.String.Size(string(lang)) + ord.String.Size(value)
	}
	return size
}

// unmarshalCount reads a collection length. Every element takes at least one
// byte, so a count larger than the remaining input is corrupt.
func unmarshalCount(bs []byte) (count int, n int, err error) {
	c, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return 0, n, err
	}
	if c > uint64(len(bs)-n) {
		return 0, n, fmt.Errorf("%w: collection length %d exceeds remaining %d bytes",
			ErrTruncatedData, c, len(bs)-n)
	}
	return int(c), n, nil
}

// MarshalCondition serializes a ConditionRecord to bytes.
func MarshalCondition(record *core.ConditionRecord) []byte {
	buf := make([]byte, ConditionMUS.Size(*record))
	ConditionMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalCondition deserializes a ConditionRecord from bytes.
func UnmarshalCondition(data []byte) (*core.ConditionRecord, error) {
	if len(data) == 0 {
		return nil, ErrTruncatedData
	}
	record, n, err := ConditionMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrSerializationFailed, len(data)-n)
	}
	return &record, nil
}

// MarshalOrdinal serializes a declaration ordinal to bytes.
func MarshalOrdinal(ordinal uint64) []byte {
	buf := make([]byte, varint.Uint64.Size(ordinal))
	varint.Uint64.Marshal(ordinal, buf)
	return buf
}

// UnmarshalOrdinal deserializes a declaration ordinal from bytes.
func UnmarshalOrdinal(data []byte) (uint64, error) {
	ordinal, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return ordinal, nil
}
