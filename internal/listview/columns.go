package listview

// Column describes one table column.
type Column struct {
	ID         string
	Title      string
	Sortable   bool
	Filterable bool
	MaxWidth   int
}

const ActionsColumn = "actions"

var columns = []Column{
	{ID: "code", Title: "Code", Sortable: true, Filterable: true, MaxWidth: 150},
	{ID: "name", Title: "Name", Sortable: true, Filterable: true, MaxWidth: 150},
	{ID: "description", Title: "Description", Sortable: true, Filterable: true, MaxWidth: 150},
	{ID: ActionsColumn, Title: "Actions", MaxWidth: 150},
}

// Columns returns the static column list.
func Columns() []Column {
	return append([]Column(nil), columns...)
}

// SortableColumns returns the ids that may appear in a SortDescriptor.
func SortableColumns() []string {
	var out []string
	for _, c := range columns {
		if c.Sortable {
			out = append(out, c.ID)
		}
	}
	return out
}

// FilterableColumns returns the ids that may appear in a FilterDescriptor.
func FilterableColumns() []string {
	var out []string
	for _, c := range columns {
		if c.Filterable {
			out = append(out, c.ID)
		}
	}
	return out
}

// ColumnTitle returns the title for id, or id itself when unknown.
func ColumnTitle(id string) string {
	for _, c := range columns {
		if c.ID == id {
			return c.Title
		}
	}
	return id
}
