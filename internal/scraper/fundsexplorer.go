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

// SourceFundsExplorer is the registry identifier for the Funds Explorer scraper.
const SourceFundsExplorer = "funds-explorer"

// FundsExplorerScraper extracts fund records from the Funds Explorer ranking
// table. Columns are resolved by header text so reordering on the site does
// not silently shift fields.
type FundsExplorerScraper struct {
	baseURL    string
	httpClient *http.Client
	logger     *logger.Logger
}

// NewFundsExplorerScraper creates a new Funds Explorer scraper.
func NewFundsExplorerScraper(cfg *config.Config, log *logger.Logger) *FundsExplorerScraper {
	return &FundsExplorerScraper{
		baseURL:    cfg.Scrapers.FundsExplorerBaseURL,
		httpClient: newHTTPClient(),
		logger:     log,
	}
}

// Name returns the source identifier.
func (s *FundsExplorerScraper) Name() string {
	return SourceFundsExplorer
}

// Scrape fetches and parses the ranking table.
func (s *FundsExplorerScraper) Scrape(ctx context.Context) ([]entity.FII, error) {
	doc, err := fetchDocument(ctx, s.httpClient, s.baseURL+"/ranking")
	if err != nil {
		return nil, fmt.Errorf("funds explorer: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("funds explorer: ranking table not found")
	}

	headerIndex := map[string]int{}
	table.Find("thead tr").First().Find("th").Each(func(i int, sel *goquery.Selection) {
		headerIndex[strings.TrimSpace(sel.Text())] = i
	})

	colTicker, okTicker := headerIndex["Fundos"]
	colPrice, okPrice := headerIndex["Preço Atual (R$)"]
	colDY, okDY := headerIndex["Dividend Yield"]
	colPVP, okPVP := headerIndex["P/VP"]
	colLastDiv, okLastDiv := headerIndex["Último Dividendo"]
	if !okTicker || !okPrice || !okDY {
		return nil, fmt.Errorf("funds explorer: expected columns missing from table header")
	}

	now := utils.TimeNowBRT()
	var fiis []entity.FII
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		ticker := entity.NormalizeTicker(cells.Eq(colTicker).Text())
		price := parseBRNumber(cells.Eq(colPrice).Text())
		if ticker == "" || price <= 0 {
			return
		}

		fii := entity.FII{
			Ticker:        ticker,
			Name:          ticker,
			Price:         price,
			DividendYield: parseBRPercent(cells.Eq(colDY).Text()),
			Source:        SourceFundsExplorer,
			LastUpdate:    now,
		}
		// Optional columns stay zero when the header is absent; an unchecked
		// lookup would read column 0 and parse the ticker as a number.
		if okPVP {
			fii.PVP = parseBRNumber(cells.Eq(colPVP).Text())
		}
		if okLastDiv {
			fii.LastDividend = parseBRNumber(cells.Eq(colLastDiv).Text())
		}
		fiis = append(fiis, fii)
	})

	s.logger.DebugContext(ctx, "Funds Explorer scrape finished", logger.IntField("fiis", len(fiis)))
	return fiis, nil
}
