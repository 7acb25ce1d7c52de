package reports

import (
	"context"
	"time"
)

// Repository ejecuta las consultas agregadas. Todas son de solo lectura.
type Repository interface {
	AdoptionRates(ctx context.Context) (AdoptionRateSummary, error)
	PopularBreeds(ctx context.Context, limit int) ([]BreedPopularity, error)
	WaitingTimes(ctx context.Context) (WaitingTimeSummary, error)
	HealthStatus(ctx context.Context) ([]HealthSummary, error)
	ShelterPerformance(ctx context.Context) ([]ShelterSummary, error)
	FollowUps(ctx context.Context) ([]FollowUpSummary, error)
}

// Cache guarda el JSON ya serializado de cada reporte.
// ok=false es un miss; un error se trata igual que un miss.
type Cache interface {
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
}

// NopCache no guarda nada.
type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }
