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
	"context"

	"github.com/poiesic/symptomatch/core"
)

// Repository is the base interface for all repositories.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	// The context passed to fn may contain transaction state.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// ConditionRepository stores a knowledge base of conditions. Declaration
// order is part of the stored state: it decides ranking ties.
type ConditionRepository interface {
	Repository

	// ReplaceConditions removes every stored condition and stores records
	// in the given order, atomically.
	ReplaceConditions(ctx context.Context, records ...*core.ConditionRecord) error

	// AddConditions appends records after the existing conditions.
	// Returns ErrDuplicateKey if a condition with the same ID is stored or
	// repeated within records; nothing is written in that case.
	AddConditions(ctx context.Context, records ...*core.ConditionRecord) ([]*core.ConditionRecord, error)

	// DeleteConditions removes conditions by their IDs.
	// Returns ErrNotFound if any condition doesn't exist.
	DeleteConditions(ctx context.Context, ids ...string) error

	// GetCondition retrieves a single condition by ID.
	// Returns ErrNotFound if the condition doesn't exist.
	GetCondition(ctx context.Context, id string) (*core.ConditionRecord, error)

	// GetAllConditions retrieves every condition in declaration order.
	GetAllConditions(ctx context.Context) ([]*core.ConditionRecord, error)

	// Count returns the number of stored conditions.
	Count(ctx context.Context) (int, error)

	// Fingerprint returns core.Fingerprint of the stored conditions in
	// declaration order.
	Fingerprint(ctx context.Context) (uint64, error)
}
