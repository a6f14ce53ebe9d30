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


package advisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/symptomatch/core"
	"github.com/poiesic/symptomatch/locator"
)

// Ranker ranks query text against a knowledge base.
type Ranker interface {
	Rank(text string) (core.Language, *core.RankResult, error)
}

// Request is a single advice query.
type Request struct {
	Text     string `json:"text"`
	Location string `json:"location,omitempty"`
}

// Response is the answer to a Request.
type Response struct {
	RequestID         uuid.UUID            `json:"request_id"`
	Language          core.Language        `json:"language"`
	Result            *core.RankResult     `json:"result"`
	NearbySpecialists []locator.Specialist `json:"nearby_specialists"` // Never nil
}

// Service composes ranking with nearby specialist lookup.
type Service struct {
	ranker   Ranker
	geocoder locator.Geocoder
	finder   locator.SpecialistFinder
	pool     *ants.Pool
	radius   float64 // Meters
	limit    int
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service) error

// WithLocator sets the geocoder and finder used for nearby lookups. Without
// both, responses carry no specialists.
func WithLocator(geocoder locator.Geocoder, finder locator.SpecialistFinder) Option {
	return func(s *Service) error {
		s.geocoder = geocoder
		s.finder = finder
		return nil
	}
}

// WithPoolSize sets the worker pool size used by AdviseAll.
// Default is runtime.NumCPU().
func WithPoolSize(size int) Option {
	return func(s *Service) error {
		if size < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidPoolSize, size)
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if s.pool != nil {
			s.pool.Release()
		}
		s.pool = pool
		return nil
	}
}

// WithSearchRadius sets the nearby search radius in meters.
// Default is locator.DefaultRadiusMeters.
func WithSearchRadius(meters float64) Option {
	return func(s *Service) error {
		if meters <= 0 {
			return fmt.Errorf("%w: %v", locator.ErrInvalidRadius, meters)
		}
		s.radius = meters
		return nil
	}
}

// WithLimit sets the maximum number of specialists per response.
// Default is locator.DefaultLimit.
func WithLimit(limit int) Option {
	return func(s *Service) error {
		if limit < 1 {
			return fmt.Errorf("%w: %d", locator.ErrInvalidLimit, limit)
		}
		s.limit = limit
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewService creates an advisor. Release must be called when done.
func NewService(ranker Ranker, opts ...Option) (*Service, error) {
	if ranker == nil {
		return nil, ErrRankerRequired
	}

	pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
	if err != nil {
		return nil, err
	}

	s := &Service{
		ranker: ranker,
		pool:   pool,
		radius: locator.DefaultRadiusMeters,
		limit:  locator.DefaultLimit,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			s.Release()
			return nil, optErr
		}
	}

	return s, nil
}

// Advise ranks req.Text and, if req.Location is set, lists nearby
// specialists for the matched condition. Ranking errors are returned as is;
// lookup failures are logged and produce an empty list.
func (s *Service) Advise(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lang, result, err := s.ranker.Rank(req.Text)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		RequestID:         uuid.New(),
		Language:          lang,
		Result:            result,
		NearbySpecialists: []locator.Specialist{},
	}

	nearby, err := s.nearby(ctx, req.Location, result.Specialist)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		s.logger.Warn("nearby lookup failed",
			"request_id", resp.RequestID,
			"location", req.Location,
			"err", err)
	} else if nearby != nil {
		resp.NearbySpecialists = nearby
	}

	s.logger.Debug("advised",
		"request_id", resp.RequestID,
		"language", lang,
		"condition", result.ConditionID,
		"nearby", len(resp.NearbySpecialists))
	return resp, nil
}

func (s *Service) nearby(ctx context.Context, location, specialist string) ([]locator.Specialist, error) {
	if s.geocoder == nil || s.finder == nil || strings.TrimSpace(location) == "" {
		return nil, nil
	}

	center, err := s.geocoder.Geocode(ctx, location)
	if errors.Is(err, locator.ErrNotFound) {
		s.logger.Debug("location not found", "location", location)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return s.finder.FindNearby(ctx, *center, s.radius, specialist, s.limit)
}

// AdviseAll advises every request concurrently on the worker pool. The i-th
// response answers the i-th request; failed requests leave a nil response
// and contribute a *RequestError to the joined error.
func (s *Service) AdviseAll(ctx context.Context, reqs []Request) ([]*Response, error) {
	responses := make([]*Response, len(reqs))
	errs := make([]error, len(reqs))

	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		submitErr := s.pool.Submit(func() {
			defer wg.Done()
			resp, err := s.Advise(ctx, req)
			if err != nil {
				errs[i] = &RequestError{Index: i, Err: err}
				return
			}
			responses[i] = resp
		})
		if submitErr != nil {
			wg.Done()
			errs[i] = &RequestError{Index: i, Err: submitErr}
		}
	}
	wg.Wait()

	return responses, errors.Join(errs...)
}

// Release releases the worker pool.
// The service should not be used after calling Release.
func (s *Service) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}
