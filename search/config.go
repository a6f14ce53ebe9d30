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


package search

import (
	"fmt"

	"github.com/poiesic/symptomatch/core"
	"github.com/poiesic/symptomatch/language"
)

// Config holds ranking settings.
type Config struct {
	// DefaultLanguage is used when the query language cannot be detected or is
	// not supported.
	// Default: "en"
	DefaultLanguage core.Language

	// StemEnglish reduces English similarity terms to their Snowball stem, so
	// "bleeding" also matches "bleeds".
	// Default: false
	StemEnglish bool
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithDefaultLanguage sets the fallback language.
func WithDefaultLanguage(lang core.Language) ConfigOption {
	return func(c *Config) {
		c.DefaultLanguage = lang
	}
}

// WithEnglishStemming enables or disables English stemming.
func WithEnglishStemming(enabled bool) ConfigOption {
	return func(c *Config) {
		c.StemEnglish = enabled
	}
}

// DefaultConfig returns a Config with the default fallback language and no
// stemming.
func DefaultConfig() *Config {
	return &Config{
		DefaultLanguage: language.DefaultLanguage,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithDefaultLanguage(core.Hindi),
//	    WithEnglishStemming(true),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks that the configuration is usable. The default language is
// collapsed to its base code first.
func (c *Config) Validate() error {
	c.DefaultLanguage = language.BaseCode(string(c.DefaultLanguage))
	if c.DefaultLanguage == "" {
		return fmt.Errorf("%w: DefaultLanguage is required", ErrInvalidConfig)
	}
	if !c.DefaultLanguage.IsSupported() {
		return fmt.Errorf("%w: DefaultLanguage %q is not supported", ErrInvalidConfig, c.DefaultLanguage)
	}
	return nil
}
