package scraper

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang-fii-analyzer/internal/config"
	"golang-fii-analyzer/internal/entity"
	"golang-fii-analyzer/pkg/logger"
	"golang-fii-analyzer/pkg/utils"

	"github.com/PuerkitoBio/goquery"
)

// SourceClubeFII is the registry identifier for the Clube FII scraper.
const SourceClubeFII = "clube-fii"

// ClubeFIIScraper extracts fund records from the Clube FII listing table.
type ClubeFIIScraper struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewClubeFIIScraper creates a new Clube FII scraper.
func NewClubeFIIScraper(cfg *config.Config, log *logger.Logger) *ClubeFIIScraper {
	return &ClubeFIIScraper{
		baseURL:    cfg.Scrapers.ClubeFIIBaseURL,
		httpClient: newHTTPClient(),
		logger:     log,
	}
}

// Name returns the source identifier.
func (s *ClubeFIIScraper) Name() string {
	return SourceClubeFII
}

// Scrape fetches and parses the fund table.
func (s *ClubeFIIScraper) Scrape(ctx context.Context) ([]entity.FII, error) {
	doc, err := fetchDocument(ctx, s.httpClient, s.baseURL+"/fiis")
	if err != nil {
		return nil, fmt.Errorf("clube fii: %w", err)
	}

	now := utils.TimeNowBRT()
	var fiis []entity.FII
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		ticker := entity.NormalizeTicker(cells.Eq(0).Text())
		name := strings.TrimSpace(cells.Eq(1).Text())
		price := parseBRNumber(cells.Eq(2).Text())
		if ticker == "" || price <= 0 {
			return
		}
		if name == "" {
			name = ticker
		}

		fiis = append(fiis, entity.FII{
			Ticker:        ticker,
			Name:          name,
			Price:         price,
			DividendYield: parseBRPercent(cells.Eq(3).Text()),
			PVP:           parseBRNumber(cells.Eq(4).Text()),
			Source:        SourceClubeFII,
			LastUpdate:    now,
		})
	})

	if len(fiis) == 0 {
		return nil, fmt.Errorf("clube fii: no funds parsed from listing page")
	}

	s.logger.DebugContext(ctx, "Clube FII scrape finished", logger.IntField("fiis", len(fiis)))
	return fiis, nil
}
