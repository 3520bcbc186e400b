package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/markwatch/journal-cli/internal/fetcher"
	"github.com/markwatch/journal-cli/internal/scraper"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire",
	Short: "Discover journals on the registry listing and download their PDFs",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
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

		result, err := s.DiscoverAndFetch(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "Journals found:\t%d\n", result.JournalsFound)
		fmt.Fprintf(w, "Journals acquired:\t%d\n", result.JournalsAcquired)
		fmt.Fprintf(w, "PDFs downloaded:\t%d\n", result.PDFsDownloaded)
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(acquireCmd)
}
