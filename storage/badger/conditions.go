package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/symptomatch/core"
	"github.com/poiesic/symptomatch/storage"
)

// ConditionRepository is the BadgerDB implementation of
// storage.ConditionRepository. Each condition is stored under its
// declaration ordinal, with a secondary index from ID to ordinal.
type ConditionRepository struct {
	backend    *Backend
	ordinalSeq *badger.Sequence
}

var _ storage.ConditionRepository = (*ConditionRepository)(nil)

// NewConditionRepository creates a new ConditionRepository.
func NewConditionRepository(backend *Backend) (*ConditionRepository, error) {
	seq, err := backend.GetSequence(conditionOrdinalSeq)
	if err != nil {
		return nil, err
	}
	return &ConditionRepository{
		backend:    backend,
		ordinalSeq: seq,
	}, nil
}

// Close releases the ordinal sequence lease.
func (r *ConditionRepository) Close() error {
	return r.ordinalSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *ConditionRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// ReplaceConditions removes every stored condition and stores records in the
// given order within one transaction.
func (r *ConditionRepository) ReplaceConditions(ctx context.Context, records ...*core.ConditionRecord) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		var stale [][]byte
		for _, prefix := range [][]byte{conditionKeyPrefix(), conditionIDKeyPrefix()} {
			keys, err := collectKeys(tx, prefix)
			if err != nil {
				return err
			}
			stale = append(stale, keys...)
		}
		for _, key := range stale {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}

		if err := r.putConditions(tx, records); err != nil {
			return err
		}
		r.backend.logger.Debug("replaced conditions", "removed", len(stale)/2, "stored", len(records))
		return tx.Commit()
	}, true)
}

// AddConditions appends records after the existing conditions.
func (r *ConditionRepository) AddConditions(ctx context.Context, records ...*core.ConditionRecord) ([]*core.ConditionRecord, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, record := range records {
			if record == nil {
				continue
			}
			_, err := tx.Get(makeConditionIDKey(record.ID))
			if err == nil {
				return fmt.Errorf("%w: condition %q", storage.ErrDuplicateKey, record.ID)
			}
			if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		if err := r.putConditions(tx, records); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return records, nil
}

// putConditions validates and writes records with fresh ordinals.
func (r *ConditionRepository) putConditions(tx *badger.Txn, records []*core.ConditionRecord) error {
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		if err := core.ValidateCondition(record); err != nil {
			return err
		}
		if _, dup := seen[record.ID]; dup {
			return fmt.Errorf("%w: condition %q", storage.ErrDuplicateKey, record.ID)
		}
		seen[record.ID] = struct{}{}

		ordinal, err := r.ordinalSeq.Next()
		if err != nil {
			return err
		}

		// Store primary record
		if err := tx.Set(makeConditionKey(ordinal), storage.MarshalCondition(record)); err != nil {
			return err
		}

		// Store ID index
		if err := tx.Set(makeConditionIDKey(record.ID), storage.MarshalOrdinal(ordinal)); err != nil {
			return err
		}
	}
	return nil
}

// DeleteConditions removes conditions by their IDs.
func (r *ConditionRepository) DeleteConditions(ctx context.Context, ids ...string) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			idKey := makeConditionIDKey(id)
			ordinal, err := readOrdinal(tx, idKey)
			if err != nil {
				return err
			}

			if err := tx.Delete(makeConditionKey(ordinal)); err != nil {
				return err
			}
			if err := tx.Delete(idKey); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetCondition retrieves a single condition by ID.
func (r *ConditionRepository) GetCondition(ctx context.Context, id string) (*core.ConditionRecord, error) {
	var result *core.ConditionRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		ordinal, err := readOrdinal(tx, makeConditionIDKey(id))
		if err != nil {
			return err
		}
		result, err = readCondition(tx, makeConditionKey(ordinal))
		if err != nil {
			return err
		}
		if result == nil {
			return fmt.Errorf("%w: condition %q", storage.ErrNotFound, id)
		}
		return nil
	}, false)
	return result, err
}

// GetAllConditions retrieves every condition in declaration order.
func (r *ConditionRepository) GetAllConditions(ctx context.Context) ([]*core.ConditionRecord, error) {
	var results []*core.ConditionRecord
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = conditionKeyPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var record *core.ConditionRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				record, err = storage.UnmarshalCondition(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, record)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Count returns the number of stored conditions.
func (r *ConditionRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		keys, err := collectKeys(tx, conditionIDKeyPrefix())
		count = len(keys)
		return err
	}, false)
	return count, err
}

// Fingerprint hashes the stored conditions in declaration order.
func (r *ConditionRepository) Fingerprint(ctx context.Context) (uint64, error) {
	records, err := r.GetAllConditions(ctx)
	if err != nil {
		return 0, err
	}
	return core.Fingerprint(records), nil
}

// Helper methods

// collectKeys copies every key under prefix without reading values.
func collectKeys(tx *badger.Txn, prefix []byte) ([][]byte, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix
	iter := tx.NewIterator(opts)
	defer iter.Close()

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	return keys, nil
}

// readOrdinal resolves a condition ID key to its ordinal.
func readOrdinal(tx *badger.Txn, idKey []byte) (uint64, error) {
	item, err := tx.Get(idKey)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			id := bytes.TrimPrefix(idKey, conditionIDKeyPrefix())
			return 0, fmt.Errorf("%w: condition %q", storage.ErrNotFound, id)
		}
		return 0, err
	}

	var ordinal uint64
	err = item.Value(func(val []byte) error {
		ordinal, err = storage.UnmarshalOrdinal(val)
		return err
	})
	return ordinal, err
}

// readCondition reads a condition from the transaction.
func readCondition(tx *badger.Txn, key []byte) (*core.ConditionRecord, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var record *core.ConditionRecord
	err = item.Value(func(val []byte) error {
		var err error
		record, err = storage.UnmarshalCondition(val)
		return err
	})
	return record, err
}
