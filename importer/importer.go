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


package importer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/symptomatch/core"
	"github.com/poiesic/symptomatch/storage"
)

// Config holds configuration for an import.
type Config struct {
	// BatchSize is the number of conditions written per transaction
	BatchSize int

	// ReportInterval is how often to report progress (number of conditions)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per batch
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration

	// Replace removes the stored knowledge base before importing. Otherwise
	// conditions are appended and existing IDs are rejected.
	Replace bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: DefaultBatchSize,
		MaxRetries:     3,
		RetryDelay:     100 * time.Millisecond,
		Replace:        true,
	}
}

// Summary describes a finished import.
type Summary struct {
	Imported    int
	Batches     int
	Fingerprint uint64
	Elapsed     time.Duration
}

// Importer writes knowledge bases into a condition repository.
type Importer struct {
	repo     storage.ConditionRepository
	config   *Config
	progress io.Writer
	logger   *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(im *Importer) error {
		if logger == nil {
			logger = slog.Default()
		}
		im.logger = logger
		return nil
	}
}

// WithProgress sets where progress output is written.
// Default is io.Discard.
func WithProgress(w io.Writer) Option {
	return func(im *Importer) error {
		if w == nil {
			w = io.Discard
		}
		im.progress = w
		return nil
	}
}

// NewImporter creates a new importer. A nil config uses DefaultConfig().
func NewImporter(repo storage.ConditionRepository, config *Config, opts ...Option) (*Importer, error) {
	if repo == nil {
		return nil, ErrRepositoryRequired
	}
	if config == nil {
		config = DefaultConfig()
	}

	im := &Importer{
		repo:     repo,
		config:   config,
		progress: io.Discard,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(im); err != nil {
			return nil, err
		}
	}

	return im, nil
}

// Run validates records as a knowledge base and writes them in batches.
// Nothing is written if validation fails. With Replace set, the first batch
// replaces the stored conditions and the stored fingerprint is verified at
// the end.
func (im *Importer) Run(ctx context.Context, records []*core.ConditionRecord) (*Summary, error) {
	if err := core.ValidateKnowledgeBase(records); err != nil {
		return nil, err
	}

	fmt.Fprintf(im.progress, "Importing %d conditions (batch size: %d)\n",
		len(records), im.config.BatchSize)

	tracker := NewProgressTracker(im.progress, len(records), im.config.ReportInterval)
	tracker.Start()

	policy := RetryPolicy{
		MaxAttempts: im.config.MaxRetries,
		BaseDelay:   im.config.RetryDelay,
	}

	summary := &Summary{}
	for batch := range Batches(records, im.config.BatchSize) {
		replace := im.config.Replace && summary.Batches == 0
		err := RetryWithBackoff(ctx, policy, func() error {
			if replace {
				return im.repo.ReplaceConditions(ctx, batch...)
			}
			_, err := im.repo.AddConditions(ctx, batch...)
			return err
		})
		if err != nil {
			tracker.Finish()
			im.logger.Error("import failed", "batch", summary.Batches, "imported", summary.Imported, "err", err)
			return summary, fmt.Errorf("failed to import batch %d: %w", summary.Batches, err)
		}

		summary.Batches++
		summary.Imported += len(batch)
		tracker.Increment(len(batch))
	}
	tracker.Finish()
	summary.Elapsed = tracker.Elapsed()

	fp, err := im.repo.Fingerprint(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to fingerprint stored conditions: %w", err)
	}
	summary.Fingerprint = fp

	if im.config.Replace {
		if want := core.Fingerprint(records); fp != want {
			return summary, fmt.Errorf("%w: stored %016x, imported %016x", ErrFingerprintMismatch, fp, want)
		}
	}

	im.logger.Info("import complete",
		"conditions", summary.Imported,
		"batches", summary.Batches,
		"fingerprint", fmt.Sprintf("%016x", fp),
		"elapsed", summary.Elapsed)
	return summary, nil
}
