package importer

import (
	"iter"

	"github.com/poiesic/symptomatch/core"
)

const (
	// DefaultBatchSize is the default number of conditions written per transaction
	DefaultBatchSize = 100
)

// Batches splits records into consecutive batches of at most size records,
// preserving order. A size <= 0 uses DefaultBatchSize.
func Batches(records []*core.ConditionRecord, size int) iter.Seq[[]*core.ConditionRecord] {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return func(yield func([]*core.ConditionRecord) bool) {
		for i := 0; i < len(records); i += size {
			end := min(i+size, len(records))
			if !yield(records[i:end]) {
				return
			}
		}
	}
}
