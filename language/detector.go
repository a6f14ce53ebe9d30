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


// Package language classifies query text into one of the knowledge base's
// supported languages.
package language

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/poiesic/symptomatch/core"
)

// DefaultLanguage is used when text cannot be classified.
const DefaultLanguage = core.English

var (
	// ErrUndetectable is returned when a detector cannot classify text.
	ErrUndetectable = errors.New("language could not be detected")

	// ErrUnsupported is returned when a detected language is outside the supported set.
	ErrUnsupported = errors.New("detected language is not supported")
)

// Detector classifies text. Implementations may fail; callers that must not
// fail wrap them in a Resolver.
type Detector interface {
	Detect(text string) (core.Language, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(text string) (core.Language, error)

// Detect calls f(text).
func (f DetectorFunc) Detect(text string) (core.Language, error) {
	return f(text)
}

var scriptLanguages = map[whatlanggo.Lang]core.Language{
	whatlanggo.Eng: core.English,
	whatlanggo.Hin: core.Hindi,
	whatlanggo.Ben: core.Bengali,
}

// ScriptDetector detects language with whatlanggo, restricted to the
// supported languages. Latin text is therefore always English, Devanagari
// Hindi and Bengali script Bengali. Text without letters is undetectable.
type ScriptDetector struct {
	options whatlanggo.Options
}

var _ Detector = (*ScriptDetector)(nil)

// NewScriptDetector creates a ScriptDetector.
func NewScriptDetector() *ScriptDetector {
	whitelist := make(map[whatlanggo.Lang]bool, len(scriptLanguages))
	for lang := range scriptLanguages {
		whitelist[lang] = true
	}
	return &ScriptDetector{options: whatlanggo.Options{Whitelist: whitelist}}
}

// Detect implements Detector.
func (d *ScriptDetector) Detect(text string) (core.Language, error) {
	info := whatlanggo.DetectWithOptions(text, d.options)
	if info.Script == nil {
		return "", ErrUndetectable
	}
	lang, ok := scriptLanguages[info.Lang]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupported, info.Lang.Iso6391())
	}
	return lang, nil
}

// BaseCode collapses a locale tag such as "hi-IN", "hi_Deva" or "HI" to its
// lowercase base code.
func BaseCode(tag string) core.Language {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return core.Language(strings.ToLower(tag))
}

// FallbackPolicy names the language used when detection fails or yields a
// language outside the supported set.
type FallbackPolicy struct {
	Default core.Language
}

// DefaultFallbackPolicy falls back to DefaultLanguage.
func DefaultFallbackPolicy() FallbackPolicy {
	return FallbackPolicy{Default: DefaultLanguage}
}

// Resolver wraps a Detector so that resolution never fails.
type Resolver struct {
	detector Detector
	policy   FallbackPolicy
	logger   *slog.Logger
}

// Resolution is the outcome of resolving a text's language.
type Resolution struct {
	Language core.Language
	// Fallback is true when the policy default was used.
	Fallback bool
	// Cause is the detection error that triggered the fallback, if any.
	Cause error
}

// NewResolver creates a resolver. A nil detector resolves everything to the
// policy default. The policy default must be a supported language.
func NewResolver(detector Detector, policy FallbackPolicy, logger *slog.Logger) (*Resolver, error) {
	policy.Default = BaseCode(string(policy.Default))
	if !policy.Default.IsSupported() {
		return nil, fmt.Errorf("fallback language: %w: %q", ErrUnsupported, policy.Default)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{detector: detector, policy: policy, logger: logger}, nil
}

// Default returns the policy's fallback language.
func (r *Resolver) Default() core.Language {
	return r.policy.Default
}

// Resolve returns a supported language for text, using the fallback policy
// when the detector errors, panics, or returns an unsupported code.
func (r *Resolver) Resolve(text string) Resolution {
	if r.detector == nil {
		return Resolution{Language: r.policy.Default, Fallback: true, Cause: ErrUndetectable}
	}

	detected, err := r.detect(text)
	if err != nil {
		r.logger.Debug("language detection failed, using fallback", "fallback", r.policy.Default, "err", err)
		return Resolution{Language: r.policy.Default, Fallback: true, Cause: err}
	}

	lang := BaseCode(string(detected))
	if !lang.IsSupported() {
		err := fmt.Errorf("%w: %q", ErrUnsupported, detected)
		r.logger.Debug("unsupported language detected, using fallback", "detected", detected, "fallback", r.policy.Default)
		return Resolution{Language: r.policy.Default, Fallback: true, Cause: err}
	}
	return Resolution{Language: lang}
}

func (r *Resolver) detect(text string) (lang core.Language, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: detector panic: %v", ErrUndetectable, p)
		}
	}()
	return r.detector.Detect(text)
}
