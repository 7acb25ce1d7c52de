package reports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pet-adoption/internal/platform/logger"
	"pet-adoption/internal/ports/capabilities"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("report not found")
)

const cachePrefix = "reports:"

type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   logger.Logger
}

func NewService(repo Repository, cache Cache, ttl time.Duration, log logger.Logger) *Service {
	if cache == nil {
		cache = NopCache{}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{repo: repo, cache: cache, ttl: ttl, log: log}
}

// Result lleva el reporte ya serializado, tal como sale (o entra) del cache.
type Result struct {
	Name   Name
	Title  string
	Data   json.RawMessage
	Cached bool
}

// Get resuelve un reporte con cache-aside. Las fallas del cache no cortan la request.
func (s *Service) Get(ctx context.Context, caller capabilities.Caller, report string) (Result, error) {
	if !caller.Authenticated() {
		return Result{}, ErrUnauthorized
	}
	name, ok := ParseName(report)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrNotFound, report)
	}

	key := cachePrefix + string(name)
	out := Result{Name: name, Title: name.Title()}

	data, hit, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("report cache read failed", map[string]any{"report": name, "err": err})
	}
	if hit && err == nil {
		out.Data = data
		out.Cached = true
		return out, nil
	}

	v, err := s.generate(ctx, name)
	if err != nil {
		return Result{}, err
	}
	data, err = json.Marshal(v)
	if err != nil {
		return Result{}, err
	}

	if s.ttl > 0 {
		if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
			s.log.Warn("report cache write failed", map[string]any{"report": name, "err": err})
		}
	}

	out.Data = data
	return out, nil
}

func (s *Service) generate(ctx context.Context, name Name) (any, error) {
	switch name {
	case AdoptionRates:
		return s.repo.AdoptionRates(ctx)
	case WaitingTimes:
		return s.repo.WaitingTimes(ctx)
	case PopularBreeds:
		items, err := s.repo.PopularBreeds(ctx, PopularBreedsLimit)
		return nonNil(items), err
	case HealthStatus:
		items, err := s.repo.HealthStatus(ctx)
		return nonNil(items), err
	case ShelterPerformance:
		items, err := s.repo.ShelterPerformance(ctx)
		return nonNil(items), err
	case FollowUps:
		items, err := s.repo.FollowUps(ctx)
		return nonNil(items), err
	default:
		return nil, ErrNotFound
	}
}

// nonNil evita que una lista vacía se serialice como null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
