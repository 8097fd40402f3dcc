// Package recordmodal is the create/edit form lifecycle for one rejection code:
// load on open, field edits, validation, create-or-update save and notification.
package recordmodal

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
	"qadmin/internal/validate"
)

type State int

const (
	Closed State = iota
	Idle
	Loading
	Saving
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Saving:
		return "saving"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrInvalid is returned by Save when the form does not validate. No request is made.
	ErrInvalid = errors.New("form is invalid")
	// ErrClosed is returned for work that finished after Close, and by operations on a closed modal.
	ErrClosed = errors.New("modal is closed")
	// ErrBusy is returned by Save while a load or save is in flight.
	ErrBusy = errors.New("modal is busy")
)

const (
	FieldCode        = "code"
	FieldName        = "name"
	FieldDescription = "description"
)

// Service is the subset of the rejection-code API the form needs.
type Service interface {
	Get(ctx context.Context, key string) (model.RejectionCode, error)
	Create(ctx context.Context, obj model.GenericObject) (model.RejectionCode, error)
	Update(ctx context.Context, key string, obj model.GenericObject) (model.RejectionCode, error)
}

// Form is the editable state.
type Form struct {
	Code        string
	Name        string
	Description string
}

func (f Form) validated() validate.RejectionCode {
	return validate.RejectionCode{
		Code:        strings.TrimSpace(f.Code),
		Name:        strings.TrimSpace(f.Name),
		Description: f.Description,
	}
}

// Target and Event let SetField take input-change events as well as raw values.
type Target struct {
	Value string
}

type Event struct {
	Target *Target
}

// Valuer is anything holding a current text value, e.g. a bubbles textinput.Model.
type Valuer interface {
	Value() string
}

type Options struct {
	// Key identifies the record to edit; empty means create.
	Key      string
	Notifier notify.Notifier
	Perms    perm.Checker
	// AfterEvent runs after a successful save, typically to refresh the list.
	AfterEvent func(model.RejectionCode)
}

type Modal struct {
	svc        Service
	key        string
	notifier   notify.Notifier
	caps       perm.RejectionCodes
	afterEvent func(model.RejectionCode)

	mu     sync.Mutex
	state  State
	form   Form
	gen    uint64
	cancel context.CancelFunc
}

func New(svc Service, opts Options) *Modal {
	n := opts.Notifier
	if n == nil {
		n = notify.Discard{}
	}
	checker := opts.Perms
	if checker == nil {
		checker = perm.DenyAll
	}
	return &Modal{
		svc:        svc,
		key:        strings.TrimSpace(opts.Key),
		notifier:   n,
		caps:       perm.ForRejectionCodes(checker),
		afterEvent: opts.AfterEvent,
	}
}

// IsNew reports whether Save creates a record.
func (m *Modal) IsNew() bool { return m.key == "" }

func (m *Modal) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Form returns a copy of the current field values.
func (m *Modal) Form() Form {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.form
}

// begin starts a cancellable operation. Callers hold m.mu.
func (m *Modal) begin(ctx context.Context, st State) (context.Context, uint64) {
	if m.cancel != nil {
		m.cancel()
	}
	m.gen++
	ctx, m.cancel = context.WithCancel(ctx)
	m.state = st
	return ctx, m.gen
}

// finish reports whether the operation started at gen is still current and
// releases its context. Callers hold m.mu.
func (m *Modal) finish(gen uint64) bool {
	if gen != m.gen {
		return false
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	return true
}

// Open resets the form, loading the record first when a key is set.
// A failed load closes the modal and notifies.
func (m *Modal) Open(ctx context.Context) error {
	m.mu.Lock()
	if m.key == "" {
		if m.cancel != nil {
			m.cancel()
			m.cancel = nil
		}
		m.gen++
		m.form = Form{}
		m.state = Idle
		m.mu.Unlock()
		return nil
	}
	m.form = Form{}
	opCtx, gen := m.begin(ctx, Loading)
	m.mu.Unlock()

	rc, err := m.svc.Get(opCtx, m.key)

	m.mu.Lock()
	if !m.finish(gen) {
		m.mu.Unlock()
		log.Debugf("discarding load of %s after close", m.key)
		return ErrClosed
	}
	if err != nil {
		m.state = Closed
		m.mu.Unlock()
		m.notifier.Error(fmt.Sprintf("Failed to load %s: %s", model.DisplayName, api.ErrorMessage(err)))
		return err
	}
	m.form = Form{Code: rc.Code, Name: rc.Name, Description: rc.Description}
	m.state = Idle
	m.mu.Unlock()
	return nil
}

// Field returns the value of a form field, or "" for unknown names.
func (m *Modal) Field(name string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch name {
	case FieldCode:
		return m.form.Code
	case FieldName:
		return m.form.Name
	case FieldDescription:
		return m.form.Description
	default:
		return ""
	}
}

func extractValue(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case Event:
		if x.Target == nil {
			return "", errors.New("event has no target")
		}
		return x.Target.Value, nil
	case *Event:
		if x == nil || x.Target == nil {
			return "", errors.New("event has no target")
		}
		return x.Target.Value, nil
	case Valuer:
		return x.Value(), nil
	default:
		return "", fmt.Errorf("unsupported field value %T", v)
	}
}

// SetField writes one field. v is a string, an Event, or a Valuer.
func (m *Modal) SetField(name string, v any) error {
	s, err := extractValue(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == Closed {
		return ErrClosed
	}
	switch name {
	case FieldCode:
		m.form.Code = s
	case FieldName:
		m.form.Name = s
	case FieldDescription:
		m.form.Description = s
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}

// Validate reports whether code and name are present and every field passes
// the security check.
func (m *Modal) Validate() bool {
	return validate.Valid(m.Form().validated())
}

// Errors returns the failed rules of the current form, nil when valid.
func (m *Modal) Errors() validate.Errors {
	err := validate.Check(m.Form().validated())
	var ve validate.Errors
	if errors.As(err, &ve) {
		return ve
	}
	return nil
}

// CanSave reports whether the save control is permitted for this record.
func (m *Modal) CanSave() bool {
	if m.IsNew() {
		return m.caps.Create
	}
	return m.caps.Update
}

// Disabled reports whether the save control should be disabled.
func (m *Modal) Disabled() bool {
	return m.State() != Idle || !m.CanSave() || !m.Validate()
}

// Title is the modal heading.
func (m *Modal) Title() string {
	if m.IsNew() {
		return "Create a " + model.DisplayName
	}
	if name := strings.TrimSpace(m.Field(FieldName)); name != "" {
		return "Edit " + model.DisplayName + " - " + name
	}
	return "Edit " + model.DisplayName
}

// Save creates or updates the record. On success it notifies, runs AfterEvent,
// closes the modal and returns the server record. On failure it notifies and
// returns to Idle with the form intact.
func (m *Modal) Save(ctx context.Context) (model.RejectionCode, error) {
	m.mu.Lock()
	switch m.state {
	case Closed:
		m.mu.Unlock()
		return model.RejectionCode{}, ErrClosed
	case Loading, Saving:
		m.mu.Unlock()
		return model.RejectionCode{}, ErrBusy
	}
	in := m.form.validated()
	if !validate.Valid(in) {
		m.mu.Unlock()
		return model.RejectionCode{}, ErrInvalid
	}
	opCtx, gen := m.begin(ctx, Saving)
	m.mu.Unlock()

	obj := model.NewGenericObject(in.Code, in.Name, in.Description)
	var (
		rc     model.RejectionCode
		err    error
		action string
	)
	if m.key != "" {
		action = "updated"
		rc, err = m.svc.Update(opCtx, m.key, obj)
	} else {
		action = "created"
		rc, err = m.svc.Create(opCtx, obj)
	}

	m.mu.Lock()
	if !m.finish(gen) {
		m.mu.Unlock()
		log.Debugf("discarding save result after close")
		return model.RejectionCode{}, ErrClosed
	}
	if err != nil {
		m.state = Idle
		m.mu.Unlock()
		m.notifier.Error(fmt.Sprintf("Failed to save %s %s: %s", model.DisplayName, in.Name, api.ErrorMessage(err)))
		return model.RejectionCode{}, err
	}
	m.state = Closed
	m.form = Form{}
	m.mu.Unlock()

	m.notifier.Success(fmt.Sprintf("%s %s %s successfully.", model.DisplayName, in.Name, action))
	if m.afterEvent != nil {
		m.afterEvent(rc)
	}
	return rc, nil
}

// Close discards the form and cancels in-flight work; late results are dropped.
func (m *Modal) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	m.state = Closed
	m.form = Form{}
}
