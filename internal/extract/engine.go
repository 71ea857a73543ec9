package extract

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/leadgen-pipeline/internal/model"
)

// Store is the slice of the persistence layer the extraction engine
// needs.
type Store interface {
	ListScrapedPages(ctx context.Context, scrapeRunID string) ([]model.ScrapedPage, error)
	AppendExtractedData(ctx context.Context, data *model.ExtractedData) error
	UpdateLeadExtraction(ctx context.Context, data *model.ExtractedData) error
}

// Engine runs extraction against persisted scrape runs and writes the
// results back.
type Engine struct {
	store     Store
	extractor *Extractor
}

func NewEngine(store Store, extractor *Extractor) *Engine {
	return &Engine{store: store, extractor: extractor}
}

// RunScrape extracts facts from every page stored under scrapeRunID and
// persists the aggregate: provenance rows appended under the run,
// scalar fields written onto the lead.
func (e *Engine) RunScrape(ctx context.Context, leadID int64, scrapeRunID string) (*model.ExtractedData, error) {
	pages, err := e.store.ListScrapedPages(ctx, scrapeRunID)
	if err != nil {
		return nil, eris.Wrap(err, "extract: list scraped pages")
	}
	if len(pages) == 0 {
		return nil, eris.Errorf("extract: scrape run %s has no pages", scrapeRunID)
	}

	fetched := make([]model.FetchedPage, 0, len(pages))
	for _, p := range pages {
		fetched = append(fetched, model.FetchedPage{
			PageID: p.ID,
			URL:    p.URL,
			Depth:  p.Depth,
			HTML:   p.HTML,
			Text:   p.Text,
		})
	}

	data := e.extractor.Extract(leadID, scrapeRunID, fetched)

	if err := e.store.AppendExtractedData(ctx, data); err != nil {
		return nil, eris.Wrap(err, "extract: append extracted data")
	}
	if err := e.store.UpdateLeadExtraction(ctx, data); err != nil {
		return nil, eris.Wrap(err, "extract: update lead")
	}

	zap.L().Info("extraction complete",
		zap.Int64("lead_id", leadID),
		zap.String("scrape_run_id", scrapeRunID),
		zap.Int("pages", len(pages)),
		zap.Int("emails", len(data.Emails)),
		zap.Int("phones", len(data.Phones)),
		zap.Int("team_members", len(data.TeamMembers)),
		zap.Bool("acquisition_flag", data.AcquisitionFlag))

	return data, nil
}
