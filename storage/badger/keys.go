package badger

import (
	"encoding/binary"
)

const (
	conditionRecordPrefix = "condrec"
	conditionIDPrefix     = "condid"
	conditionOrdinalSeq   = "condseq"
)

// makeConditionKey generates the primary key of a condition.
// Format: prefix:ordinal
// The ordinal is written BigEndian so key order is declaration order.
func makeConditionKey(ordinal uint64) []byte {
	prefix := conditionRecordPrefix + ":"
	buf := make([]byte, len(prefix)+8)
	offset := copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[offset:], ordinal)
	return buf
}

// makeConditionIDKey generates the ID index key of a condition.
// Format: prefix:id
func makeConditionIDKey(id string) []byte {
	prefix := conditionIDPrefix + ":"
	buf := make([]byte, len(prefix)+len(id))
	offset := copy(buf, prefix)
	copy(buf[offset:], id)
	return buf
}

func conditionKeyPrefix() []byte {
	return []byte(conditionRecordPrefix + ":")
}

func conditionIDKeyPrefix() []byte {
	return []byte(conditionIDPrefix + ":")
}
