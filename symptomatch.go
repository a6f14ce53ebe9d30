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


// Package symptomatch ranks free-text symptom descriptions against a
// multilingual knowledge base of dental conditions.
//
// An Engine is built either from a YAML knowledge base file or from a
// BadgerDB store populated with Import. Engines are safe for concurrent use.
package symptomatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/symptomatch/advisor"
	"github.com/poiesic/symptomatch/core"
	"github.com/poiesic/symptomatch/importer"
	"github.com/poiesic/symptomatch/kb"
	"github.com/poiesic/symptomatch/search"
	"github.com/poiesic/symptomatch/storage"
	"github.com/poiesic/symptomatch/storage/badger"
)

type Engine struct {
	ranker      *search.Ranker
	fingerprint uint64
	backend     *badger.Backend            // Nil unless opened from a store
	repo        *badger.ConditionRepository // Nil unless opened from a store
	logger      *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	searchOpts []search.Option
	logger     *slog.Logger
}

// WithSearchOptions passes options to the underlying ranker.
func WithSearchOptions(opts ...search.Option) EngineOption {
	return func(o *engineOptions) {
		o.searchOpts = append(o.searchOpts, opts...)
	}
}

// WithLogger sets a custom logger for the engine, its ranker and its store.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

func newEngineOptions(opts []EngineOption) *engineOptions {
	options := &engineOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// NewEngine builds an engine over conditions in declaration order.
func NewEngine(conditions []*core.ConditionRecord, opts ...EngineOption) (*Engine, error) {
	return newEngine(conditions, newEngineOptions(opts))
}

func newEngine(conditions []*core.ConditionRecord, options *engineOptions) (*Engine, error) {
	searchOpts := append([]search.Option{search.WithLogger(options.logger)}, options.searchOpts...)
	ranker, err := search.NewRanker(conditions, searchOpts...)
	if err != nil {
		return nil, err
	}
	return &Engine{
		ranker:      ranker,
		fingerprint: core.Fingerprint(ranker.Conditions()),
		logger:      options.logger,
	}, nil
}

// NewEngineFromFile loads a YAML knowledge base and builds an engine over it.
func NewEngineFromFile(path string, opts ...EngineOption) (*Engine, error) {
	conditions, err := kb.Load(path)
	if err != nil {
		return nil, err
	}
	return NewEngine(conditions, opts...)
}

// OpenEngine builds an engine from the knowledge base stored at dbPath.
// The store stays open until Close.
func OpenEngine(ctx context.Context, dbPath string, opts ...EngineOption) (*Engine, error) {
	options := newEngineOptions(opts)

	backend, repo, err := openStore(dbPath, options.logger)
	if err != nil {
		return nil, err
	}

	conditions, err := repo.GetAllConditions(ctx)
	if err == nil {
		var e *Engine
		if e, err = newEngine(conditions, options); err == nil {
			e.backend = backend
			e.repo = repo
			return e, nil
		}
	}

	closeStore(backend, repo, options.logger)
	return nil, fmt.Errorf("open engine at %s: %w", dbPath, err)
}

// Import loads the YAML knowledge base at kbPath into the store at dbPath.
func Import(ctx context.Context, kbPath, dbPath string, config *importer.Config, opts ...ImportOption) (*importer.Summary, error) {
	options := &importOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}

	conditions, err := kb.Load(kbPath)
	if err != nil {
		return nil, err
	}

	backend, repo, err := openStore(dbPath, options.logger)
	if err != nil {
		return nil, err
	}
	defer closeStore(backend, repo, options.logger)

	importerOpts := append([]importer.Option{importer.WithLogger(options.logger)}, options.importerOpts...)
	im, err := importer.NewImporter(repo, config, importerOpts...)
	if err != nil {
		return nil, err
	}
	return im.Run(ctx, conditions)
}

// ImportOption configures Import.
type ImportOption func(*importOptions)

type importOptions struct {
	logger       *slog.Logger
	importerOpts []importer.Option
}

// WithImportLogger sets the logger used by the store and the importer.
// Default is slog.Default().
func WithImportLogger(logger *slog.Logger) ImportOption {
	return func(o *importOptions) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// WithImporterOptions passes options to the underlying importer. They are
// applied after the logger, so importer.WithLogger here takes precedence.
func WithImporterOptions(opts ...importer.Option) ImportOption {
	return func(o *importOptions) {
		o.importerOpts = append(o.importerOpts, opts...)
	}
}

func openStore(dbPath string, logger *slog.Logger) (*badger.Backend, *badger.ConditionRepository, error) {
	backend, err := badger.OpenBackend(dbPath, false, badger.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	repo, err := badger.NewConditionRepository(backend)
	if err != nil {
		if closeErr := backend.Close(); closeErr != nil {
			logger.Error("error closing backend storage", "err", closeErr)
		}
		return nil, nil, err
	}
	return backend, repo, nil
}

func closeStore(backend *badger.Backend, repo *badger.ConditionRepository, logger *slog.Logger) error {
	var errs []error
	if err := repo.Close(); err != nil {
		logger.Error("error closing condition repository", "err", err)
		errs = append(errs, err)
	}
	if err := backend.Close(); err != nil {
		logger.Error("error closing backend storage", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Close releases the store, if any.
func (e *Engine) Close() error {
	if e.backend == nil {
		return nil
	}
	err := closeStore(e.backend, e.repo, e.logger)
	e.backend, e.repo = nil, nil
	return err
}

// Rank returns the resolved language and best-matching condition for text.
func (e *Engine) Rank(text string) (core.Language, *core.RankResult, error) {
	return e.ranker.Rank(text)
}

// Ranker returns the underlying ranker.
func (e *Engine) Ranker() *search.Ranker {
	return e.ranker
}

// Len returns the number of conditions.
func (e *Engine) Len() int {
	return e.ranker.Len()
}

// Fingerprint identifies the knowledge base the engine was built from.
func (e *Engine) Fingerprint() uint64 {
	return e.fingerprint
}

// Repository returns the backing store, or nil for engines built from
// records or files.
func (e *Engine) Repository() storage.ConditionRepository {
	if e.repo == nil {
		return nil
	}
	return e.repo
}

// NewAdvisor creates an advisor over this engine. The caller must Release it.
func (e *Engine) NewAdvisor(opts ...advisor.Option) (*advisor.Service, error) {
	opts = append([]advisor.Option{advisor.WithLogger(e.logger)}, opts...)
	return advisor.NewService(e.ranker, opts...)
}
