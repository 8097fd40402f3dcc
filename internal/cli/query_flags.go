package cli

import (
	"fmt"
	"slices"
	"strings"

	"qadmin/internal/listview"

	"github.com/spf13/cobra"
)

// queryFlags are the sort and filter flags shared by list and export.
type queryFlags struct {
	sort    string
	desc    bool
	filters []string
}

func (q *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&q.sort, "sort", "", "Sort column ("+strings.Join(listview.SortableColumns(), "|")+")")
	cmd.Flags().BoolVar(&q.desc, "desc", false, "Sort descending")
	cmd.Flags().StringArrayVar(&q.filters, "filter", nil, "Column filter as field=regex (repeatable)")
}

func (q *queryFlags) sorts() ([]listview.SortDescriptor, error) {
	id := strings.ToLower(strings.TrimSpace(q.sort))
	if id == "" {
		if q.desc {
			return nil, fmt.Errorf("--desc needs --sort")
		}
		return nil, nil
	}
	if !slices.Contains(listview.SortableColumns(), id) {
		return nil, fmt.Errorf("invalid --sort %q (want one of %s)", q.sort, strings.Join(listview.SortableColumns(), ", "))
	}
	return []listview.SortDescriptor{{ID: id, Desc: q.desc}}, nil
}

func (q *queryFlags) descriptors() ([]listview.FilterDescriptor, error) {
	out := make([]listview.FilterDescriptor, 0, len(q.filters))
	for _, f := range q.filters {
		field, value, ok := strings.Cut(f, "=")
		field = strings.ToLower(strings.TrimSpace(field))
		if !ok || value == "" {
			return nil, fmt.Errorf("invalid --filter %q (want field=regex)", f)
		}
		if !slices.Contains(listview.FilterableColumns(), field) {
			return nil, fmt.Errorf("invalid --filter field %q (want one of %s)", field, strings.Join(listview.FilterableColumns(), ", "))
		}
		out = append(out, listview.FilterDescriptor{ID: field, Value: value})
	}
	return out, nil
}
