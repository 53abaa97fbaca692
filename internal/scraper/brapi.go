package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang-fii-analyzer/internal/config"
	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/pkg/logger"
	"golang-fii-analyzer/pkg/utils"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// SourceBrapi is the registry identifier for the Brapi API scraper.
const SourceBrapi = "brapi"

const brapiCacheKey = "brapi:quotes"

// BrapiScraper collects fund quotes from the Brapi JSON API. Requests are
// rate limited and results cached briefly so a BOTH job right after a COLLECT
// does not hit the API twice.
type BrapiScraper struct {
	cfg            config.Brapi
	logger         *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
	quoteCache     *cache.Cache
	cacheDuration  time.Duration
}

// NewBrapiScraper creates a new Brapi scraper.
func NewBrapiScraper(cfg *config.Config, log *logger.Logger) *BrapiScraper {
	maxPerMinute := cfg.Scrapers.Brapi.MaxRequestPerMinute
	if maxPerMinute <= 0 {
		maxPerMinute = 30
	}
	cacheDuration, err := time.ParseDuration(cfg.Scrapers.Brapi.CacheDuration)
	if err != nil || cacheDuration <= 0 {
		cacheDuration = 5 * time.Minute
	}

	return &BrapiScraper{
		cfg:            cfg.Scrapers.Brapi,
		logger:         log,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		requestLimiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(maxPerMinute)), 1),
		quoteCache:     cache.New(cacheDuration, 2*cacheDuration),
		cacheDuration:  cacheDuration,
	}
}

// Name returns the source identifier.
func (s *BrapiScraper) Name() string {
	return SourceBrapi
}

type brapiListResponse struct {
	Stocks []struct {
		Stock string `json:"stock"`
	} `json:"stocks"`
}

type brapiQuoteResponse struct {
	Results []struct {
		Symbol                     string  `json:"symbol"`
		LongName                   string  `json:"longName"`
		RegularMarketPrice         float64 `json:"regularMarketPrice"`
		RegularMarketChangePercent float64 `json:"regularMarketChangePercent"`
		PriceToBook                float64 `json:"priceToBook"`
		DividendYield              float64 `json:"dividendYield"`
	} `json:"results"`
}

// Scrape lists FII tickers and fetches their quotes in batches.
func (s *BrapiScraper) Scrape(ctx context.Context) ([]entity.FII, error) {
	if cached, ok := s.quoteCache.Get(brapiCacheKey); ok {
		fiis := cached.([]entity.FII)
		s.logger.DebugContext(ctx, "Brapi quotes served from cache", logger.IntField("fiis", len(fiis)))
		return fiis, nil
	}

	tickers, err := s.listFIIs(ctx)
	if err != nil {
		return nil, fmt.Errorf("brapi: %w", err)
	}
	if len(tickers) == 0 {
		return nil, fmt.Errorf("brapi: no FII tickers found")
	}

	batchSize := s.cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	now := utils.TimeNowBRT()
	var fiis []entity.FII
	for start := 0; start < len(tickers); start += batchSize {
		end := start + batchSize
		if end > len(tickers) {
			end = len(tickers)
		}

		batch, err := s.fetchQuotes(ctx, tickers[start:end], now)
		if err != nil {
			// A failed batch loses those tickers only; the rest still count.
			s.logger.ErrorContext(ctx, "Brapi quote batch failed", logger.ErrorField(err))
			continue
		}
		fiis = append(fiis, batch...)
	}

	if len(fiis) == 0 {
		return nil, fmt.Errorf("brapi: all quote batches failed")
	}

	s.quoteCache.Set(brapiCacheKey, fiis, s.cacheDuration)
	s.logger.DebugContext(ctx, "Brapi scrape finished", logger.IntField("fiis", len(fiis)))
	return fiis, nil
}

// listFIIs returns tickers ending in "11", the B3 listing pattern for FIIs.
func (s *BrapiScraper) listFIIs(ctx context.Context) ([]string, error) {
	query := url.Values{}
	query.Set("search", "11")
	query.Set("limit", "500")
	if s.cfg.Token != "" {
		query.Set("token", s.cfg.Token)
	}

	body, err := s.sendRequest(ctx, s.cfg.BaseURL+"/quote/list?"+query.Encode())
	if err != nil {
		return nil, err
	}

	var list brapiListResponse
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, err
	}

	var tickers []string
	for _, item := range list.Stocks {
		ticker := entity.NormalizeTicker(item.Stock)
		if strings.HasSuffix(ticker, "11") {
			tickers = append(tickers, ticker)
		}
	}
	return tickers, nil
}

func (s *BrapiScraper) fetchQuotes(ctx context.Context, tickers []string, now time.Time) ([]entity.FII, error) {
	query := url.Values{}
	if s.cfg.Token != "" {
		query.Set("token", s.cfg.Token)
	}

	reqURL := s.cfg.BaseURL + "/quote/" + strings.Join(tickers, ",")
	if encoded := query.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	body, err := s.sendRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var quotes brapiQuoteResponse
	if err := json.Unmarshal(body, &quotes); err != nil {
		return nil, err
	}

	var fiis []entity.FII
	for _, q := range quotes.Results {
		if q.RegularMarketPrice <= 0 {
			continue
		}
		name := q.LongName
		if name == "" {
			name = q.Symbol
		}
		fiis = append(fiis, entity.FII{
			Ticker:           entity.NormalizeTicker(q.Symbol),
			Name:             name,
			Price:            q.RegularMarketPrice,
			DividendYield:    q.DividendYield,
			DividendYield12M: q.DividendYield,
			PVP:              q.PriceToBook,
			PriceVariation:   q.RegularMarketChangePercent,
			Source:           SourceBrapi,
			LastUpdate:       now,
		})
	}
	return fiis, nil
}

func (s *BrapiScraper) sendRequest(ctx context.Context, reqURL string) ([]byte, error) {
	if err := s.requestLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from brapi", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
