package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/markwatch/journal-cli/internal/extract"
	"github.com/markwatch/journal-cli/internal/fetcher"
	"github.com/markwatch/journal-cli/internal/ocr"
	"github.com/markwatch/journal-cli/internal/pipeline"
	"github.com/markwatch/journal-cli/internal/scraper"
	"github.com/markwatch/journal-cli/internal/store"
)

// pipelineEnv holds the initialized store and pipeline needed by the
// run/acquire/extract/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "journal.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline sets up the store, fetcher, extractor, and parser, and
// builds the Pipeline. Callers should defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Source.UserAgent,
		MaxRetries: cfg.Download.MaxRetries,
	})

	s := scraper.New(st, f, scraper.Options{
		ListingURL:      cfg.Source.ListingURL,
		DownloadDir:     cfg.Download.Dir,
		MaxJournals:     cfg.Source.MaxJournals,
		DownloadTimeout: cfg.Download.Timeout(),
	})

	extractor, err := ocr.NewExtractor(cfg.Extract.OCR)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	tables, err := extract.LoadTables(cfg.Extract.TablesPath)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	return &pipelineEnv{
		Store:    st,
		Pipeline: pipeline.New(st, s, extractor, extract.NewParser(tables)),
	}, nil
}
