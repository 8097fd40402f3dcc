package cli

import (
	"fmt"
	"io"
	"os"

	"qadmin/internal/importer"
	"qadmin/internal/perm"

	"github.com/spf13/cobra"
)

func newImportCmd(app *App) *cobra.Command {
	var (
		testMode  bool
		batchSize int
		rate      float64
	)

	cmd := &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Bulk upload rejection codes from a CSV file (- reads stdin)",
		Long: `Bulk upload rejection codes from a CSV file with a Code,Name,Description header.

Rows are checked locally with the same rules as the record form. Valid rows are
sent in throttled batches; --test-mode asks the server to validate without writing.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.cfg.Checker().CanAccess(perm.DomainQuality, perm.ResourceRejectionCode, perm.ActionCreate) {
				return writeErr(cmd, errPermission(perm.ActionCreate))
			}

			var r io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				defer f.Close()
				r = f
			}

			opts := importer.Options{
				BatchSize: app.cfg.Import.BatchSize,
				Rate:      app.cfg.Import.Rate,
				TestMode:  testMode,
			}
			if cmd.Flags().Changed("batch-size") {
				opts.BatchSize = batchSize
			}
			if cmd.Flags().Changed("rate") {
				opts.Rate = rate
			}

			rep, err := importer.Run(cmd.Context(), app.client(), r, opts)
			if err != nil {
				return writeErr(cmd, err)
			}
			if werr := writeOut(cmd, app, map[string]any{"data": importReport(rep)}); werr != nil {
				return werr
			}
			if !rep.OK() {
				return writeErr(cmd, fmt.Errorf("%d row(s) rejected", len(rep.Rejected)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&testMode, "test-mode", false, "Validate on the server without writing")
	cmd.Flags().IntVar(&batchSize, "batch-size", importer.DefaultBatchSize, "Rows per request")
	cmd.Flags().Float64Var(&rate, "rate", 0, "Batches per second (0 = unthrottled)")
	return cmd
}
