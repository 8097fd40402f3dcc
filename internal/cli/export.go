package cli

import (
	"io"
	"os"

	"qadmin/internal/listview"

	"github.com/spf13/cobra"
)

func newExportCmd(app *App) *cobra.Command {
	var (
		out string
		q   queryFlags
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export every matching rejection code as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sorts, err := q.sorts()
			if err != nil {
				return writeErr(cmd, err)
			}
			filters, err := q.descriptors()
			if err != nil {
				return writeErr(cmd, err)
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return writeErr(cmd, err)
				}
				defer f.Close()
				w = f
			}

			n, err := app.listView(cmd).Export(cmd.Context(), w, app.cfg.PageSize, sorts, filters)
			if err != nil {
				return writeErr(cmd, err)
			}
			if out == "-" {
				return nil
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"file": out, "rows": n},
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", listview.ExportFileName, "Output file, - for stdout")
	q.register(cmd)
	return cmd
}
