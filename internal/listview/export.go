package listview

import (
	"context"
	"encoding/csv"
	"io"
)

// ExportFileName is the default name of an exported table.
const ExportFileName = "rejection_codes.csv"

var exportHeader = []string{"Code", "Name", "Description"}

// Export walks every page matching sorts and filters and writes them as CSV.
// It does not change the table state. Returns the number of rows written.
func (lv *ListView) Export(ctx context.Context, w io.Writer, pageSize int, sorts []SortDescriptor, filters []FilterDescriptor) (int, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, err
	}

	n := 0
	for page := 0; ; page++ {
		res, err := lv.fetch(ctx, State{PageSize: pageSize, PageIndex: page, Sorts: sorts, Filters: filters})
		if err != nil {
			return n, err
		}
		for _, rc := range res.Rows {
			if err := cw.Write([]string{rc.Code, rc.Name, rc.Description}); err != nil {
				return n, err
			}
			n++
		}
		if len(res.Rows) == 0 || page+1 >= res.Pages {
			break
		}
	}
	cw.Flush()
	return n, cw.Error()
}
