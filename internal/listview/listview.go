// Package listview is the server-paginated rejection-code table: it turns
// paging, sort and filter state into list queries and maps responses into rows.
package listview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"qadmin/internal/api"
	"qadmin/internal/log"
	"qadmin/internal/model"
	"qadmin/internal/notify"
	"qadmin/internal/perm"
)

const DefaultPageSize = 10

// ErrNotPermitted is returned by triggers whose capability was not granted.
var ErrNotPermitted = errors.New("not permitted")

// SortDescriptor is one active sort. ID is a column id.
type SortDescriptor struct {
	ID   string
	Desc bool
}

// FilterDescriptor is one active column filter; Value is a regular expression.
type FilterDescriptor struct {
	ID    string
	Value string
}

// Service is the subset of the rejection-code API the table needs.
type Service interface {
	List(ctx context.Context, q api.ListQuery) (model.ListEnvelope, error)
	Delete(ctx context.Context, key string) error
}

// Result is one fetched page.
type Result struct {
	Rows  []model.RejectionCode
	Pages int
}

// FetchError is a failed page fetch. Message is what the table displays.
type FetchError struct {
	Message string
	Err     error
}

func (e *FetchError) Error() string { return e.Message }
func (e *FetchError) Unwrap() error { return e.Err }

// State is the paging, sort and filter state of the last fetch. PageIndex is 0-based.
type State struct {
	PageSize  int
	PageIndex int
	Sorts     []SortDescriptor
	Filters   []FilterDescriptor
}

// BuildQuery maps table state to the list query. Only the first sort descriptor
// is used. Filters keep their order.
func BuildQuery(pageSize, pageIndex int, sorts []SortDescriptor, filters []FilterDescriptor) api.ListQuery {
	q := api.ListQuery{
		Page: pageIndex + 1,
		Per:  pageSize,
	}
	if len(sorts) > 0 {
		q.OrderBy = sorts[0].ID
		q.Order = api.OrderAsc
		if sorts[0].Desc {
			q.Order = api.OrderDesc
		}
	}
	if len(filters) > 0 {
		q.RegexFilters = make([]api.RegexFilter, 0, len(filters))
		for _, f := range filters {
			q.RegexFilters = append(q.RegexFilters, api.RegexFilter{Field: f.ID, Value: f.Value})
		}
	}
	return q
}

// Options configures a ListView. Zero values mean: deny every capability,
// discard notifications, DefaultPageSize.
type Options struct {
	Perms    perm.Checker
	Notifier notify.Notifier
	PageSize int
}

type ListView struct {
	svc      Service
	caps     perm.RejectionCodes
	notifier notify.Notifier

	mu    sync.Mutex
	state State
}

func New(svc Service, opts Options) *ListView {
	checker := opts.Perms
	if checker == nil {
		checker = perm.DenyAll
	}
	n := opts.Notifier
	if n == nil {
		n = notify.Discard{}
	}
	size := opts.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	return &ListView{
		svc:      svc,
		caps:     perm.ForRejectionCodes(checker),
		notifier: n,
		state:    State{PageSize: size},
	}
}

// State returns a copy of the last requested state.
func (lv *ListView) State() State {
	lv.mu.Lock()
	defer lv.mu.Unlock()
	return copyState(lv.state)
}

func copyState(s State) State {
	s.Sorts = append([]SortDescriptor(nil), s.Sorts...)
	s.Filters = append([]FilterDescriptor(nil), s.Filters...)
	return s
}

// FetchPage records the requested state and fetches one page. It does not retry.
func (lv *ListView) FetchPage(ctx context.Context, pageSize, pageIndex int, sorts []SortDescriptor, filters []FilterDescriptor) (Result, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageIndex < 0 {
		pageIndex = 0
	}
	st := copyState(State{PageSize: pageSize, PageIndex: pageIndex, Sorts: sorts, Filters: filters})
	lv.mu.Lock()
	lv.state = st
	lv.mu.Unlock()
	return lv.fetch(ctx, st)
}

func (lv *ListView) fetch(ctx context.Context, st State) (Result, error) {
	q := BuildQuery(st.PageSize, st.PageIndex, st.Sorts, st.Filters)
	env, err := lv.svc.List(ctx, q)
	if err != nil {
		msg := api.ErrorMessage(err)
		log.Debugf("fetch page %d: %v", q.Page, err)
		return Result{}, &FetchError{Message: msg, Err: err}
	}
	rows := env.Objects
	if rows == nil {
		rows = []model.RejectionCode{}
	}
	return Result{Rows: rows, Pages: env.TotalPages}, nil
}

// Refresh re-fetches with the last requested state.
func (lv *ListView) Refresh(ctx context.Context) (Result, error) {
	return lv.fetch(ctx, lv.State())
}

// CanCreate reports whether the page-level create trigger is shown.
func (lv *ListView) CanCreate() bool { return lv.caps.Create }

// Trigger is one action cell control.
type Trigger struct {
	Label   string
	Enabled bool
}

// RowActions are the controls of the Actions column for one row.
type RowActions struct {
	Edit   Trigger
	Delete Trigger
}

// Actions returns the action cell of a row. Edit is shown but disabled without
// UPDATE; delete is inert without DELETE.
func (lv *ListView) Actions(model.RejectionCode) RowActions {
	return RowActions{
		Edit:   Trigger{Label: "Edit", Enabled: lv.caps.Update},
		Delete: Trigger{Label: "Delete", Enabled: lv.caps.Delete},
	}
}

// CanEdit reports whether the edit trigger opens the record form.
func (lv *ListView) CanEdit() bool { return lv.caps.Update }

// Delete removes row and refreshes the table. Without DELETE it does nothing
// and returns ErrNotPermitted.
func (lv *ListView) Delete(ctx context.Context, row model.RejectionCode) (Result, error) {
	if !lv.caps.Delete {
		return Result{}, ErrNotPermitted
	}
	if err := lv.svc.Delete(ctx, row.Key); err != nil {
		msg := api.ErrorMessage(err)
		lv.notifier.Error(fmt.Sprintf("Failed to delete %s %s: %s", model.DisplayName, displayName(row), msg))
		return Result{}, err
	}
	lv.notifier.Success(fmt.Sprintf("%s %s deleted successfully.", model.DisplayName, displayName(row)))
	return lv.Refresh(ctx)
}

// AfterEdit is the completion hook for the edit trigger.
func (lv *ListView) AfterEdit(ctx context.Context) (Result, error) {
	return lv.Refresh(ctx)
}

func displayName(rc model.RejectionCode) string {
	if s := strings.TrimSpace(rc.Name); s != "" {
		return s
	}
	return rc.Code
}
