package service

import (
	"context"
	"errors"
	"testing"

	"golang-fii-analyzer/internal/config"
	"golang-fii-analyzer/internal/dto"
	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/internal/eventbus"
	"golang-fii-analyzer/internal/scraper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScraper struct {
	name string
	fiis []entity.FII
	err  error
}

func (s stubScraper) Name() string { return s.name }

func (s stubScraper) Scrape(context.Context) ([]entity.FII, error) {
	return s.fiis, s.err
}

func newTestRegistry(scrapers ...scraper.Scraper) *scraper.Registry {
	registry := scraper.NewRegistry(&config.Config{}, testLogger())
	for _, s := range scrapers {
		registry.Register(s)
	}
	return registry
}

func TestCollectIsolatesFailingSources(t *testing.T) {
	registry := newTestRegistry(
		stubScraper{name: "good-a", fiis: []entity.FII{{Ticker: "HGLG11", Price: 160}}},
		stubScraper{name: "bad", err: errors.New("connection refused")},
		stubScraper{name: "good-b", fiis: []entity.FII{{Ticker: "MXRF11", Price: 10}, {Ticker: "KNRI11", Price: 130}}},
	)
	fiiRepo := newFakeFIIRepo()
	log := testLogger()
	svc := NewCollectorService(registry, fiiRepo, eventbus.New(log), log)

	result := svc.Collect(context.Background(), dto.CollectRequest{
		Sources: []string{"good-a", "bad", "good-b"},
	})

	assert.Equal(t, 3, result.TotalCollected)
	assert.Len(t, result.FIIs, 3)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "connection refused")

	assert.True(t, result.Sources["good-a"].Success)
	assert.False(t, result.Sources["bad"].Success)
	assert.True(t, result.Sources["good-b"].Success)
	assert.Len(t, result.Sources["good-b"].Data, 2)
}

func TestCollectUnknownSource(t *testing.T) {
	registry := newTestRegistry(
		stubScraper{name: "good", fiis: []entity.FII{{Ticker: "HGLG11", Price: 160}}},
	)
	log := testLogger()
	svc := NewCollectorService(registry, newFakeFIIRepo(), eventbus.New(log), log)

	result := svc.Collect(context.Background(), dto.CollectRequest{
		Sources: []string{"nope", "good"},
	})

	assert.Equal(t, 1, result.TotalCollected)
	require.Contains(t, result.Sources, "nope")
	assert.False(t, result.Sources["nope"].Success)
	assert.Contains(t, result.Sources["nope"].Error, "scraper not found")
}

func TestCollectMixedKnownAndUnknownSources(t *testing.T) {
	registry := newTestRegistry(
		stubScraper{name: "good-a", fiis: []entity.FII{{Ticker: "HGLG11", Price: 160}}},
		stubScraper{name: "good-b", fiis: []entity.FII{{Ticker: "MXRF11", Price: 10}}},
	)
	log := testLogger()
	svc := NewCollectorService(registry, newFakeFIIRepo(), eventbus.New(log), log)

	// Unknown identifiers are recorded while adapter goroutines from earlier
	// iterations are still writing the shared result.
	for i := 0; i < 25; i++ {
		result := svc.Collect(context.Background(), dto.CollectRequest{
			Sources: []string{"good-a", "nope-a", "good-b", "nope-b"},
		})

		assert.Equal(t, 2, result.TotalCollected)
		require.Len(t, result.Sources, 4)
		require.Len(t, result.Errors, 2)
		assert.False(t, result.Sources["nope-a"].Success)
		assert.False(t, result.Sources["nope-b"].Success)
	}
}

func TestCollectPersistDeduplicatesTickersAcrossSources(t *testing.T) {
	registry := newTestRegistry(
		stubScraper{name: "source-a", fiis: []entity.FII{
			{Ticker: "HGLG11", Price: 160.50, Source: "source-a"},
			{Ticker: "MXRF11", Price: 10.05, Source: "source-a"},
		}},
		stubScraper{name: "source-b", fiis: []entity.FII{
			{Ticker: "HGLG11", Price: 160.80, Source: "source-b"},
		}},
	)
	fiiRepo := newFakeFIIRepo()
	log := testLogger()
	svc := NewCollectorService(registry, fiiRepo, eventbus.New(log), log)

	result := svc.Collect(context.Background(), dto.CollectRequest{
		Sources: []string{"source-a", "source-b"}, Persist: true,
	})

	assert.Equal(t, 3, result.TotalCollected)
	assert.Empty(t, result.Errors)

	// The upsert batch holds one row per ticker so a single multi-row
	// statement never touches the same conflict key twice.
	require.Len(t, fiiRepo.upserted, 1)
	upserted := fiiRepo.upserted[0]
	require.Len(t, upserted, 2)
	byTicker := map[string]entity.FII{}
	for _, fii := range upserted {
		byTicker[fii.Ticker] = fii
	}
	require.Contains(t, byTicker, "HGLG11")
	require.Contains(t, byTicker, "MXRF11")

	// The last collected record for a duplicated ticker wins.
	var last entity.FII
	for _, fii := range result.FIIs {
		if fii.Ticker == "HGLG11" {
			last = fii
		}
	}
	assert.Equal(t, last.Source, byTicker["HGLG11"].Source)

	// Every collected record still lands in history.
	require.Len(t, fiiRepo.history, 1)
	assert.Len(t, fiiRepo.history[0], 3)
}

func TestCollectPersistsWhenRequested(t *testing.T) {
	registry := newTestRegistry(
		stubScraper{name: "good", fiis: []entity.FII{{Ticker: "HGLG11", Price: 160}}},
	)
	fiiRepo := newFakeFIIRepo()
	log := testLogger()
	svc := NewCollectorService(registry, fiiRepo, eventbus.New(log), log)

	result := svc.Collect(context.Background(), dto.CollectRequest{
		Sources: []string{"good"}, Persist: true,
	})

	assert.Equal(t, 1, result.TotalCollected)
	assert.Empty(t, result.Errors)
	require.Len(t, fiiRepo.upserted, 1)
	require.Len(t, fiiRepo.history, 1)
}

func TestCollectWithoutPersistDoesNotTouchRepository(t *testing.T) {
	registry := newTestRegistry(
		stubScraper{name: "good", fiis: []entity.FII{{Ticker: "HGLG11", Price: 160}}},
	)
	fiiRepo := newFakeFIIRepo()
	log := testLogger()
	svc := NewCollectorService(registry, fiiRepo, eventbus.New(log), log)

	svc.Collect(context.Background(), dto.CollectRequest{Sources: []string{"good"}})

	assert.Empty(t, fiiRepo.upserted)
	assert.Empty(t, fiiRepo.history)
}

func TestCollectPersistFailureKeepsData(t *testing.T) {
	registry := newTestRegistry(
		stubScraper{name: "good", fiis: []entity.FII{{Ticker: "HGLG11", Price: 160}}},
	)
	fiiRepo := newFakeFIIRepo()
	fiiRepo.upsertErr = errors.New("database gone")
	log := testLogger()
	svc := NewCollectorService(registry, fiiRepo, eventbus.New(log), log)

	result := svc.Collect(context.Background(), dto.CollectRequest{
		Sources: []string{"good"}, Persist: true,
	})

	assert.Equal(t, 1, result.TotalCollected)
	assert.Len(t, result.FIIs, 1)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "database gone")
}

func TestCollectPublishesFailureWhenNothingCollected(t *testing.T) {
	registry := newTestRegistry(
		stubScraper{name: "bad", err: errors.New("down")},
	)
	log := testLogger()
	bus := eventbus.New(log)
	svc := NewCollectorService(registry, newFakeFIIRepo(), bus, log)

	svc.Collect(context.Background(), dto.CollectRequest{Sources: []string{"bad"}})

	var types []entity.EventType
	for _, event := range bus.Recent() {
		types = append(types, event.Type)
	}
	assert.Contains(t, types, entity.EventCollectionStarted)
	assert.Contains(t, types, entity.EventCollectionFailed)
	assert.NotContains(t, types, entity.EventCollectionCompleted)
}
