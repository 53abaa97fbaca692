package service

import (
	"context"
	"sync"

	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testLogger() *logger.Logger {
	return &logger.Logger{Logger: zap.NewNop()}
}

type fakeFIIRepo struct {
	mu        sync.Mutex
	byTicker  map[string]entity.FII
	upserted  [][]entity.FII
	history   [][]entity.FII
	upsertErr error
	findErr   error
}

func newFakeFIIRepo(fiis ...entity.FII) *fakeFIIRepo {
	r := &fakeFIIRepo{byTicker: make(map[string]entity.FII)}
	for _, fii := range fiis {
		r.byTicker[fii.Ticker] = fii
	}
	return r
}

func (r *fakeFIIRepo) UpsertBatch(_ context.Context, fiis []entity.FII) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	r.upserted = append(r.upserted, fiis)
	for _, fii := range fiis {
		r.byTicker[fii.Ticker] = fii
	}
	return nil
}

func (r *fakeFIIRepo) AppendHistory(_ context.Context, fiis []entity.FII) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, fiis)
	return nil
}

func (r *fakeFIIRepo) FindByTicker(_ context.Context, ticker string) (*entity.FII, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	fii, ok := r.byTicker[entity.NormalizeTicker(ticker)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &fii, nil
}

func (r *fakeFIIRepo) FindAll(_ context.Context) ([]entity.FII, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	fiis := make([]entity.FII, 0, len(r.byTicker))
	for _, fii := range r.byTicker {
		fiis = append(fiis, fii)
	}
	return fiis, nil
}

func (r *fakeFIIRepo) FindHistory(context.Context, string, int) ([]entity.FIIHistory, error) {
	return nil, nil
}

type fakeAlertRepo struct {
	mu     sync.Mutex
	alerts []entity.Alert
}

func (r *fakeAlertRepo) Create(_ context.Context, alert *entity.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts = append(r.alerts, *alert)
	return nil
}

func (r *fakeAlertRepo) FindByID(_ context.Context, id string) (*entity.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, alert := range r.alerts {
		if alert.ID == id {
			a := alert
			return &a, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeAlertRepo) FindAll(context.Context) ([]entity.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.Alert(nil), r.alerts...), nil
}

func (r *fakeAlertRepo) FindActive(context.Context) ([]entity.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var active []entity.Alert
	for _, alert := range r.alerts {
		if alert.Active {
			active = append(active, alert)
		}
	}
	return active, nil
}

func (r *fakeAlertRepo) FindByTicker(_ context.Context, ticker string) ([]entity.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []entity.Alert
	for _, alert := range r.alerts {
		if alert.Ticker == entity.NormalizeTicker(ticker) {
			matched = append(matched, alert)
		}
	}
	return matched, nil
}

func (r *fakeAlertRepo) Update(_ context.Context, alert *entity.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.alerts {
		if r.alerts[i].ID == alert.ID {
			r.alerts[i] = *alert
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeAlertRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.alerts {
		if r.alerts[i].ID == id {
			r.alerts = append(r.alerts[:i], r.alerts[i+1:]...)
			return nil
		}
	}
	return nil
}

type fakeAnalysisRepo struct {
	mu      sync.Mutex
	latest  []entity.FIIAnalysis
	batches [][]entity.FIIAnalysis
}

func (r *fakeAnalysisRepo) CreateBatch(_ context.Context, analyses []entity.FIIAnalysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, analyses)
	r.latest = analyses
	return nil
}

func (r *fakeAnalysisRepo) FindLatest(context.Context) ([]entity.FIIAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entity.FIIAnalysis(nil), r.latest...), nil
}

func (r *fakeAnalysisRepo) FindByTicker(_ context.Context, ticker string, _ int) ([]entity.FIIAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []entity.FIIAnalysis
	for _, a := range r.latest {
		if a.Ticker == entity.NormalizeTicker(ticker) {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

type fakeDispatcher struct {
	mu       sync.Mutex
	sent     []entity.AlertTrigger
	outcomes []ChannelOutcome
}

func (d *fakeDispatcher) Send(_ context.Context, trigger entity.AlertTrigger) []ChannelOutcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, trigger)
	return d.outcomes
}

func (d *fakeDispatcher) TestConnections(context.Context) map[string]bool {
	return map[string]bool{}
}
