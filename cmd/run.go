package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/markwatch/journal-cli/internal/model"
)

var runJSON bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full pipeline pass (acquire then extract)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		audit, runErr := env.Pipeline.Run(ctx, model.TriggerManual)
		if audit != nil {
			if runJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				_ = enc.Encode(audit)
			} else {
				printAudit(os.Stdout, *audit)
			}
		}
		return runErr
	},
}

func printAudit(out io.Writer, a model.RunAudit) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Status:\t%s\n", a.Status)
	fmt.Fprintf(w, "Journals found:\t%d\n", a.JournalsFound)
	fmt.Fprintf(w, "Journals acquired:\t%d\n", a.JournalsAcquired)
	fmt.Fprintf(w, "PDFs downloaded:\t%d\n", a.PDFsDownloaded)
	fmt.Fprintf(w, "Records extracted:\t%d\n", a.RecordsExtracted)
	fmt.Fprintf(w, "Duration:\t%s\n", (time.Duration(a.DurationSecs) * time.Second).String())
	if a.ErrorMessage != "" {
		fmt.Fprintf(w, "Error:\t%s\n", a.ErrorMessage)
	}
	_ = w.Flush()
}

func init() {
	runCmd.Flags().BoolVar(&runJSON, "json", false, "print the run audit as JSON")
	rootCmd.AddCommand(runCmd)
}
