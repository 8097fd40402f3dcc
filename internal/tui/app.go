// Package tui is the interactive rejection-code screen: a server-paginated
// table with sort, filter and delete, plus the record form modal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"qadmin/internal/listview"
	"qadmin/internal/model"
	"qadmin/internal/notify"
	"qadmin/internal/perm"
	"qadmin/internal/recordmodal"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultFlashTTL = 4 * time.Second

// Service is everything the screen calls; *api.RejectionCodes implements it.
type Service interface {
	listview.Service
	recordmodal.Service
}

type Options struct {
	Service  Service
	Perms    perm.Checker
	PageSize int
	// ExportDir receives exported CSV files; empty means the working directory.
	ExportDir string
	FlashTTL  time.Duration
}

type mode int

const (
	modeTable mode = iota
	modeFilter
	modeForm
	modeConfirmDelete
	modeHelp
)

type Model struct {
	ctx   context.Context
	svc   Service
	perms perm.Checker
	lv    *listview.ListView
	notes *notify.Recorder

	keys    keyMap
	help    help.Model
	table   table.Model
	spinner spinner.Model

	rows      []model.RejectionCode
	pageSize  int
	pageIndex int
	pages     int
	sortID    string
	sortDesc  bool

	filterInputs []textinput.Model
	filterFocus  int
	filters      []listview.FilterDescriptor

	loading  bool
	fetchSeq int
	fetchErr string

	mode         mode
	form         *recordForm
	confirmRow   model.RejectionCode
	confirmFocus confirmFocus

	flash    string
	flashOK  bool
	flashSeq int
	flashTTL time.Duration

	exportDir string
	width     int
	height    int
}

func New(ctx context.Context, opts Options) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	checker := opts.Perms
	if checker == nil {
		checker = perm.DenyAll
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = listview.DefaultPageSize
	}
	ttl := opts.FlashTTL
	if ttl <= 0 {
		ttl = defaultFlashTTL
	}

	notes := &notify.Recorder{}
	lv := listview.New(opts.Service, listview.Options{
		Perms:    checker,
		Notifier: notify.Multi{notify.Log{}, notes},
		PageSize: pageSize,
	})

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorAccent)

	var filterInputs []textinput.Model
	for range listview.FilterableColumns() {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = "regex"
		ti.CharLimit = 200
		ti.Width = 18
		filterInputs = append(filterInputs, ti)
	}

	m := Model{
		ctx:          ctx,
		svc:          opts.Service,
		perms:        checker,
		lv:           lv,
		notes:        notes,
		keys:         newKeyMap(lv.CanCreate()),
		help:         help.New(),
		spinner:      s,
		pageSize:     pageSize,
		pages:        1,
		filterInputs: filterInputs,
		loading:      true,
		fetchSeq:     1,
		flashTTL:     ttl,
		exportDir:    opts.ExportDir,
		width:        100,
		height:       30,
	}
	m.table = table.New(
		table.WithFocused(true),
		table.WithStyles(tableStyles()),
	)
	m.rebuildTable()
	return m
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorBorder).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(colorSelFg).
		Background(colorSelected).
		Bold(false)
	return s
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(m.fetchSeq), m.spinner.Tick)
}

func (m Model) sorts() []listview.SortDescriptor {
	if m.sortID == "" {
		return nil
	}
	return []listview.SortDescriptor{{ID: m.sortID, Desc: m.sortDesc}}
}

func (m Model) fetchCmd(seq int) tea.Cmd {
	lv, ctx := m.lv, m.ctx
	size, idx, sorts := m.pageSize, m.pageIndex, m.sorts()
	filters := append([]listview.FilterDescriptor(nil), m.filters...)
	return func() tea.Msg {
		res, err := lv.FetchPage(ctx, size, idx, sorts, filters)
		return pageFetchedMsg{seq: seq, res: res, err: err}
	}
}

// startFetch fetches the current page; any older response in flight is dropped.
func (m *Model) startFetch() tea.Cmd {
	m.fetchSeq++
	m.loading = true
	return tea.Batch(m.fetchCmd(m.fetchSeq), m.spinner.Tick)
}

func (m *Model) startRefresh() tea.Cmd {
	m.fetchSeq++
	m.loading = true
	seq, lv, ctx := m.fetchSeq, m.lv, m.ctx
	return tea.Batch(func() tea.Msg {
		res, err := lv.Refresh(ctx)
		return pageFetchedMsg{seq: seq, res: res, err: err}
	}, m.spinner.Tick)
}

// showPage applies a fetch result that is known to be current.
func (m *Model) showPage(res listview.Result, err error) tea.Cmd {
	m.loading = false
	if err != nil {
		m.fetchErr = err.Error()
		return nil
	}
	m.fetchErr = ""
	m.rows = res.Rows
	m.pages = res.Pages
	if m.pages < 1 {
		m.pages = 1
	}
	// The last page can vanish under us, e.g. after deleting its only row.
	if len(m.rows) == 0 && m.pageIndex > 0 && m.pageIndex >= m.pages {
		m.pageIndex = m.pages - 1
		return m.startFetch()
	}
	m.rebuildTable()
	return nil
}

func (m *Model) setFlash(text string, ok bool) tea.Cmd {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	m.flash = text
	m.flashOK = ok
	m.flashSeq++
	seq := m.flashSeq
	return tea.Tick(m.flashTTL, func(time.Time) tea.Msg { return flashDoneMsg{seq: seq} })
}

func (m *Model) flashNotes(notes []notify.Message) tea.Cmd {
	if len(notes) == 0 {
		return nil
	}
	last := notes[len(notes)-1]
	return m.setFlash(last.Text, last.OK)
}

func (m Model) selectedRow() (model.RejectionCode, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return model.RejectionCode{}, false
	}
	return m.rows[i], true
}

func (m Model) formBusy() bool {
	return m.form != nil && m.form.busy()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.rebuildTable()
		return m, nil

	case spinner.TickMsg:
		if !m.loading && !m.formBusy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pageFetchedMsg:
		if msg.seq != m.fetchSeq {
			return m, nil
		}
		return m, m.showPage(msg.res, msg.err)

	case formLoadedMsg:
		if m.form == nil || m.form.modal != msg.modal {
			return m, nil
		}
		if msg.err != nil {
			if errors.Is(msg.err, recordmodal.ErrClosed) {
				return m, nil
			}
			m.form = nil
			m.mode = modeTable
			return m, m.flashNotes(msg.notes)
		}
		m.form.syncInputs()
		return m, nil

	case formSavedMsg:
		return m.handleSaved(msg)

	case deletedMsg:
		cmd := m.flashNotes(msg.notes)
		if msg.page.seq != m.fetchSeq {
			return m, cmd
		}
		if msg.err != nil {
			m.loading = false
			return m, cmd
		}
		m.fetchSeq++
		return m, tea.Batch(cmd, m.showPage(msg.page.res, msg.page.err))

	case exportedMsg:
		if msg.err != nil {
			return m, m.setFlash("Export failed: "+msg.err.Error(), false)
		}
		return m, m.setFlash(fmt.Sprintf("Exported %d rows to %s", msg.rows, msg.path), true)

	case flashDoneMsg:
		if msg.seq == m.flashSeq {
			m.flash = ""
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeFilter:
			return m.updateFilter(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		case modeHelp:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			m.mode = modeTable
			return m, nil
		default:
			return m.updateTable(msg)
		}
	}
	return m, nil
}

func (m Model) handleSaved(msg formSavedMsg) (tea.Model, tea.Cmd) {
	if errors.Is(msg.err, recordmodal.ErrClosed) {
		return m, nil
	}
	cmd := m.flashNotes(msg.notes)
	if msg.err != nil {
		return m, cmd
	}
	if m.form != nil && m.form.modal == msg.modal {
		m.form = nil
		m.mode = modeTable
	}
	// Apply the after-save refresh unless a newer fetch was started meanwhile.
	if msg.page != nil && msg.page.seq == m.fetchSeq {
		m.fetchSeq++
		return m, tea.Batch(cmd, m.showPage(msg.page.res, msg.page.err))
	}
	return m, cmd
}

func (m Model) updateTable(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.mode = modeHelp
		return m, nil

	case key.Matches(msg, m.keys.NextPage):
		if m.pageIndex+1 >= m.pages {
			return m, nil
		}
		m.pageIndex++
		return m, m.startFetch()

	case key.Matches(msg, m.keys.PrevPage):
		if m.pageIndex == 0 {
			return m, nil
		}
		m.pageIndex--
		return m, m.startFetch()

	case key.Matches(msg, m.keys.Sort):
		m.sortID = nextSortColumn(m.sortID)
		if m.sortID == "" {
			m.sortDesc = false
		}
		m.pageIndex = 0
		return m, m.startFetch()

	case key.Matches(msg, m.keys.SortDir):
		if m.sortID == "" {
			return m, nil
		}
		m.sortDesc = !m.sortDesc
		m.pageIndex = 0
		return m, m.startFetch()

	case key.Matches(msg, m.keys.Filter):
		m.mode = modeFilter
		m.focusFilter(0)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Refresh):
		return m, m.startRefresh()

	case key.Matches(msg, m.keys.Create):
		if !m.lv.CanCreate() {
			return m, nil
		}
		return m.openForm("")

	case key.Matches(msg, m.keys.Edit):
		row, ok := m.selectedRow()
		if !ok {
			return m, nil
		}
		if !m.lv.CanEdit() {
			return m, m.setFlash("Editing requires update permission", false)
		}
		return m.openForm(row.Key)

	case key.Matches(msg, m.keys.Delete):
		row, ok := m.selectedRow()
		if !ok || !m.lv.Actions(row).Delete.Enabled {
			return m, nil
		}
		m.mode = modeConfirmDelete
		m.confirmRow = row
		m.confirmFocus = confirmFocusCancel
		return m, nil

	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func nextSortColumn(cur string) string {
	ids := listview.SortableColumns()
	if cur == "" {
		return ids[0]
	}
	for i, id := range ids {
		if id == cur && i+1 < len(ids) {
			return ids[i+1]
		}
	}
	return ""
}

func (m *Model) focusFilter(i int) {
	n := len(m.filterInputs)
	m.filterFocus = ((i % n) + n) % n
	for j := range m.filterInputs {
		if j == m.filterFocus {
			m.filterInputs[j].Focus()
		} else {
			m.filterInputs[j].Blur()
		}
	}
}

func (m *Model) blurFilters() {
	for j := range m.filterInputs {
		m.filterInputs[j].Blur()
	}
}

// activeFilters returns one descriptor per non-empty filter input, in column order.
func (m Model) activeFilters() []listview.FilterDescriptor {
	var out []listview.FilterDescriptor
	for i, id := range listview.FilterableColumns() {
		if v := strings.TrimSpace(m.filterInputs[i].Value()); v != "" {
			out = append(out, listview.FilterDescriptor{ID: id, Value: v})
		}
	}
	return out
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		// Discard edits: restore the inputs from the applied filters.
		for i, id := range listview.FilterableColumns() {
			v := ""
			for _, f := range m.filters {
				if f.ID == id {
					v = f.Value
				}
			}
			m.filterInputs[i].SetValue(v)
		}
		m.blurFilters()
		m.mode = modeTable
		return m, nil
	case "enter":
		m.filters = m.activeFilters()
		m.pageIndex = 0
		m.blurFilters()
		m.mode = modeTable
		return m, m.startFetch()
	case "tab":
		m.focusFilter(m.filterFocus + 1)
		return m, nil
	case "shift+tab":
		m.focusFilter(m.filterFocus - 1)
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterFocus], cmd = m.filterInputs[m.filterFocus].Update(msg)
	return m, cmd
}

func (m Model) openForm(recordKey string) (tea.Model, tea.Cmd) {
	lv, ctx := m.lv, m.ctx
	f := newRecordForm(m.svc, recordKey, m.perms, func() (listview.Result, error) {
		return lv.AfterEdit(ctx)
	})
	m.form = f
	m.mode = modeForm

	if recordKey == "" {
		_ = f.modal.Open(ctx)
		return m, textinput.Blink
	}
	modal, notes := f.modal, f.notes
	load := func() tea.Msg {
		err := modal.Open(ctx)
		return formLoadedMsg{modal: modal, err: err, notes: notes.Drain()}
	}
	return m, tea.Batch(load, m.spinner.Tick, textinput.Blink)
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if f == nil {
		m.mode = modeTable
		return m, nil
	}
	switch msg.String() {
	case "ctrl+c":
		f.modal.Close()
		return m, tea.Quit
	case "esc":
		f.modal.Close()
		m.form = nil
		m.mode = modeTable
		return m, nil
	case "tab", "down":
		f.setFocus(f.focus + 1)
		return m, nil
	case "shift+tab", "up":
		f.setFocus(f.focus - 1)
		return m, nil
	case "enter", "ctrl+s":
		return m.saveForm()
	}
	return m, f.updateInput(msg)
}

func (m Model) saveForm() (tea.Model, tea.Cmd) {
	f := m.form
	if f.modal.State() != recordmodal.Idle {
		return m, nil
	}
	if !f.modal.CanSave() {
		need := "update"
		if f.modal.IsNew() {
			need = "create"
		}
		return m, m.setFlash("Saving requires "+need+" permission", false)
	}
	if !f.modal.Validate() {
		f.showErrors = true
		return m, m.setFlash(f.firstError(), false)
	}

	f.saveSeq = m.fetchSeq
	f.afterPage = nil
	modal, notes, ctx := f.modal, f.notes, m.ctx
	save := func() tea.Msg {
		rc, err := modal.Save(ctx)
		return formSavedMsg{modal: modal, rc: rc, err: err, notes: notes.Drain(), page: f.afterPage}
	}
	return m, tea.Batch(save, m.spinner.Tick)
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "n", "q":
		m.mode = modeTable
		return m, nil
	case "tab", "shift+tab", "left", "right", "h", "l":
		if m.confirmFocus == confirmFocusConfirm {
			m.confirmFocus = confirmFocusCancel
		} else {
			m.confirmFocus = confirmFocusConfirm
		}
		return m, nil
	case "y":
		return m.confirmDelete()
	case "enter":
		if m.confirmFocus == confirmFocusConfirm {
			return m.confirmDelete()
		}
		m.mode = modeTable
		return m, nil
	}
	return m, nil
}

func (m Model) confirmDelete() (tea.Model, tea.Cmd) {
	m.mode = modeTable
	row := m.confirmRow
	m.loading = true
	seq, lv, notes, ctx := m.fetchSeq, m.lv, m.notes, m.ctx
	del := func() tea.Msg {
		res, err := lv.Delete(ctx, row)
		msg := deletedMsg{page: pageFetchedMsg{seq: seq, res: res}, notes: notes.Drain()}
		var fe *listview.FetchError
		if errors.As(err, &fe) {
			// The delete went through; only the refresh failed.
			msg.page.err = err
		} else {
			msg.err = err
		}
		return msg
	}
	return m, tea.Batch(del, m.spinner.Tick)
}

func (m Model) exportCmd() tea.Cmd {
	lv, ctx := m.lv, m.ctx
	size, sorts := m.pageSize, m.sorts()
	filters := append([]listview.FilterDescriptor(nil), m.filters...)
	path := filepath.Join(m.exportDir, listview.ExportFileName)
	return func() tea.Msg {
		f, err := os.Create(path)
		if err != nil {
			return exportedMsg{path: path, err: err}
		}
		n, err := lv.Export(ctx, f, size, sorts, filters)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return exportedMsg{path: path, rows: n, err: err}
	}
}
