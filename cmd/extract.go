package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract trademark records from pending PDFs",
	Long:  "Processes every downloaded PDF that has not been extracted yet, without touching the registry listing.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		summary, err := env.Pipeline.ExtractPending(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "PDFs claimed:\t%d\n", summary.Total)
		fmt.Fprintf(w, "PDFs processed:\t%d\n", summary.Processed)
		fmt.Fprintf(w, "Records extracted:\t%d\n", summary.Records)
		fmt.Fprintf(w, "Errors:\t%d\n", summary.Errors)
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
