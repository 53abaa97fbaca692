package scraper

import (
	"context"
	"fmt"
	"net/http"

	"golang-fii-analyzer/internal/config"
	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/pkg/logger"
	"golang-fii-analyzer/pkg/utils"

	"github.com/PuerkitoBio/goquery"
)

// SourceStatusInvest is the registry identifier for the Status Invest scraper.
const SourceStatusInvest = "status-invest"

// StatusInvestScraper extracts fund records from the Status Invest FII
// listing page.
type StatusInvestScraper struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewStatusInvestScraper creates a new Status Invest scraper.
func NewStatusInvestScraper(cfg *config.Config, log *logger.Logger) *StatusInvestScraper {
	return &StatusInvestScraper{
		baseURL:    cfg.Scrapers.StatusInvestBaseURL,
		httpClient: newHTTPClient(),
		logger:     log,
	}
}

// Name returns the source identifier.
func (s *StatusInvestScraper) Name() string {
	return SourceStatusInvest
}

// Scrape fetches and parses the fund list.
func (s *StatusInvestScraper) Scrape(ctx context.Context) ([]entity.FII, error) {
	doc, err := fetchDocument(ctx, s.httpClient, s.baseURL+"/fundos-imobiliarios")
	if err != nil {
		return nil, fmt.Errorf("status invest: %w", err)
	}

	now := utils.TimeNowBRT()
	var fiis []entity.FII
	doc.Find("div[data-card], .list .item").Each(func(_ int, card *goquery.Selection) {
		ticker := entity.NormalizeTicker(card.Find(".ticker, h4 strong").First().Text())
		price := parseBRNumber(card.Find("[title='Valor atual do ativo'] .value, .price").First().Text())
		if ticker == "" || price <= 0 {
			return
		}

		fiis = append(fiis, entity.FII{
			Ticker:        ticker,
			Name:          ticker,
			Price:         price,
			DividendYield: parseBRPercent(card.Find("[title='Dividend Yield'] .value, .dy").First().Text()),
			PVP:           parseBRNumber(card.Find("[title='P/VP'] .value, .pvp").First().Text()),
			Source:        SourceStatusInvest,
			LastUpdate:    now,
		})
	})

	if len(fiis) == 0 {
		return nil, fmt.Errorf("status invest: no funds parsed from listing page")
	}

	s.logger.DebugContext(ctx, "Status Invest scrape finished", logger.IntField("fiis", len(fiis)))
	return fiis, nil
}
