package tui

import (
	"fmt"
	"strings"

	"qadmin/internal/listview"
	"qadmin/internal/model"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

const actionsCellWidth = 16

// rebuildTable recomputes columns for the current width and sort, then loads m.rows.
func (m *Model) rebuildTable() {
	cols := listview.Columns()
	avail := m.width - actionsCellWidth - 2*len(cols)
	if avail < 30 {
		avail = 30
	}
	// Code gets a fixed share; name and description split the rest.
	codeW := 14
	nameW := (avail - codeW) * 2 / 5
	descW := avail - codeW - nameW

	widths := map[string]int{
		"code":                 codeW,
		"name":                 nameW,
		"description":          descW,
		listview.ActionsColumn: actionsCellWidth,
	}

	var tcols []table.Column
	for _, c := range cols {
		w := widths[c.ID]
		if c.MaxWidth > 0 && w > c.MaxWidth {
			w = c.MaxWidth
		}
		title := c.Title
		if c.ID == m.sortID {
			if m.sortDesc {
				title += " ▼"
			} else {
				title += " ▲"
			}
		}
		tcols = append(tcols, table.Column{Title: title, Width: w})
	}

	rows := make([]table.Row, 0, len(m.rows))
	for _, rc := range m.rows {
		rows = append(rows, table.Row{rc.Code, rc.Name, oneLine(rc.Description), m.actionsCell(rc)})
	}

	cursor := m.table.Cursor()
	// SetRows before SetColumns: the table renders rows against the column count.
	m.table.SetRows(nil)
	m.table.SetColumns(tcols)
	m.table.SetRows(rows)
	h := m.height - 8
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
	m.table.SetWidth(m.width)
	if cursor >= len(rows) {
		cursor = len(rows) - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	m.table.SetCursor(cursor)
}

func (m Model) actionsCell(rc model.RejectionCode) string {
	a := m.lv.Actions(rc)
	var parts []string
	if a.Edit.Enabled {
		parts = append(parts, "[e] "+a.Edit.Label)
	} else {
		parts = append(parts, "("+a.Edit.Label+")")
	}
	if a.Delete.Enabled {
		parts = append(parts, "[d]")
	}
	return strings.Join(parts, " ")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	base := m.viewTable()
	switch m.mode {
	case modeForm:
		if m.form != nil {
			return placeModal(m.width, m.height, m.form.view(m.width, m.spinner.View()))
		}
	case modeConfirmDelete:
		body := fmt.Sprintf("Delete %s %q? This cannot be undone.", model.DisplayName, m.confirmRow.Name)
		return placeModal(m.width, m.height, renderConfirmModal(m.width, "Delete "+model.DisplayName, body, "Delete", "Cancel", m.confirmFocus))
	case modeHelp:
		md := renderMarkdown(m.keys.helpMarkdown(), modalBodyWidth(m.width))
		return placeModal(m.width, m.height, renderModalBox(m.width, "Help", strings.TrimRight(md, "\n")+"\n\n"+styleMuted().Render("any key: close")))
	}
	return base
}

func (m Model) viewTable() string {
	var b strings.Builder

	title := styleTitle().Render("Rejection Codes")
	if m.lv.CanCreate() {
		title += "  " + styleMuted().Render("n: new")
	}
	b.WriteString(title + "\n")
	b.WriteString(m.viewFilterBar() + "\n")

	switch {
	case m.fetchErr != "":
		b.WriteString(styleError().Render("Error: "+m.fetchErr) + "\n")
	case m.loading:
		b.WriteString(m.spinner.View() + " Loading…\n")
	default:
		b.WriteString("\n")
	}

	if len(m.rows) == 0 && !m.loading && m.fetchErr == "" {
		b.WriteString(styleMuted().Render("No rejection codes.") + "\n")
	} else {
		b.WriteString(m.table.View() + "\n")
	}

	b.WriteString(styleMuted().Render(m.statusLine()) + "\n")
	if m.flash != "" {
		b.WriteString(styleFlash(m.flashOK).Render(m.flash))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return normalizePane(b.String(), m.width, m.height)
}

func (m Model) statusLine() string {
	s := fmt.Sprintf("Page %d of %d", m.pageIndex+1, m.pages)
	if m.sortID != "" {
		dir := "asc"
		if m.sortDesc {
			dir = "desc"
		}
		s += fmt.Sprintf("  ·  sorted by %s %s", listview.ColumnTitle(m.sortID), dir)
	}
	if n := len(m.filters); n > 0 {
		s += fmt.Sprintf("  ·  %d filter(s)", n)
	}
	return s
}

func (m Model) viewFilterBar() string {
	var cells []string
	for i, id := range listview.FilterableColumns() {
		label := listview.ColumnTitle(id) + ": "
		var val string
		if m.mode == modeFilter {
			val = m.filterInputs[i].View()
		} else if v := m.filterInputs[i].Value(); v != "" {
			val = v
		} else {
			val = styleMuted().Render("any")
		}
		st := lipgloss.NewStyle()
		if m.mode == modeFilter && i == m.filterFocus {
			st = st.Foreground(colorAccent).Bold(true)
		}
		cells = append(cells, st.Render(label)+val)
	}
	bar := strings.Join(cells, "   ")
	if m.mode == modeFilter {
		bar += "   " + styleMuted().Render("enter: apply  esc: cancel")
	}
	return bar
}
