package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/markwatch/journal-cli/internal/export"
	"github.com/markwatch/journal-cli/internal/store"
)

var (
	exportOut   string
	exportClass int
	exportQuery string
)

var exportCmd = &cobra.Command{
	Use:   "export [journals|trademarks]",
	Short: "Export stored data to an XLSX workbook",
	Long:  "Writes a workbook to disk: 'journals' produces a summary sheet plus one sheet per journal, 'trademarks' a single filtered sheet.",
	Args:  cobra.ExactArgs(1),
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

		svc := export.NewService(st)

		var data []byte
		kind := args[0]
		switch kind {
		case "journals":
			data, err = svc.ExportByJournal(ctx)
		case "trademarks":
			data, err = svc.ExportTrademarks(ctx, store.TrademarkFilter{
				Search:      exportQuery,
				ClassNumber: exportClass,
			})
		default:
			return eris.Errorf("unknown export kind %q (want journals or trademarks)", kind)
		}
		if err != nil {
			return err
		}

		out := exportOut
		if out == "" {
			out = export.FileName(kind)
		}
		if dir := filepath.Dir(out); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return eris.Wrap(err, "create output directory")
			}
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return eris.Wrap(err, "write workbook")
		}

		fmt.Printf("Wrote %s (%d bytes)\n", out, len(data))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path (default: timestamped name in the current directory)")
	exportCmd.Flags().IntVar(&exportClass, "class", 0, "filter trademarks by class number")
	exportCmd.Flags().StringVar(&exportQuery, "search", "", "filter trademarks by name or application number")
	rootCmd.AddCommand(exportCmd)
}
