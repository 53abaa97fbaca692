package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang-fii-analyzer/internal/config"
	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/pkg/logger"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Scraper fetches fund records from one external provider. Implementations own
// their timeouts so a hung source cannot block a whole collection batch.
type Scraper interface {
	Name() string
	Scrape(ctx context.Context) ([]entity.FII, error)
}

// Registry maps source identifiers to their scrapers. The adapter set is
// assembled at startup; looking up an unknown identifier is a typed failure,
// not a panic.
type Registry struct {
	scrapers map[string]Scraper
}

// NewRegistry builds the registry with every built-in source adapter.
func NewRegistry(cfg *config.Config, log *logger.Logger) *Registry {
	r := &Registry{scrapers: make(map[string]Scraper)}
	r.Register(NewFundsExplorerScraper(cfg, log))
	r.Register(NewStatusInvestScraper(cfg, log))
	r.Register(NewClubeFIIScraper(cfg, log))
	r.Register(NewBrapiScraper(cfg, log))
	return r
}

// Register adds a scraper under its source identifier, replacing any existing
// adapter with the same name.
func (r *Registry) Register(s Scraper) {
	r.scrapers[s.Name()] = s
}

// Get returns the scraper registered under the given source identifier.
func (r *Registry) Get(source string) (Scraper, error) {
	s, ok := r.scrapers[source]
	if !ok {
		return nil, fmt.Errorf("scraper not found for source: %s", source)
	}
	return s, nil
}

// Sources lists the registered source identifiers.
func (r *Registry) Sources() []string {
	sources := make([]string, 0, len(r.scrapers))
	for name := range r.scrapers {
		sources = append(sources, name)
	}
	return sources
}

// Has reports whether the source identifier is registered.
func (r *Registry) Has(source string) bool {
	_, ok := r.scrapers[source]
	return ok
}

// newHTTPClient returns the shared client configuration for scraping requests.
func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// fetchDocument GETs a page and parses it with goquery.
func fetchDocument(ctx context.Context, client *http.Client, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	return goquery.NewDocumentFromReader(resp.Body)
}
