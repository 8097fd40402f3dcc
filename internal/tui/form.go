package tui

import (
	"strings"

	"qadmin/internal/listview"
	"qadmin/internal/model"
	"qadmin/internal/notify"
	"qadmin/internal/perm"
	"qadmin/internal/recordmodal"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type formField struct {
	name        string
	label       string
	placeholder string
	limit       int
}

var formFields = []formField{
	{name: recordmodal.FieldCode, label: "Code", placeholder: "required", limit: 64},
	{name: recordmodal.FieldName, label: "Name", placeholder: "required", limit: 255},
	{name: recordmodal.FieldDescription, label: "Description", placeholder: "optional", limit: 1000},
}

// recordForm binds text inputs to a recordmodal.Modal.
type recordForm struct {
	modal  *recordmodal.Modal
	notes  *notify.Recorder
	inputs []textinput.Model
	focus  int
	// showErrors is set by the first save attempt so an untouched form is not all red.
	showErrors bool

	// saveSeq is the fetch sequence current when the save started.
	saveSeq int
	// afterPage is written by the after-save hook on the save goroutine.
	afterPage *pageFetchedMsg
}

// newRecordForm builds the form for key ("" creates). refresh, when set, runs
// after a successful save and its result travels back with the save message.
func newRecordForm(svc recordmodal.Service, key string, perms perm.Checker, refresh func() (listview.Result, error)) *recordForm {
	f := &recordForm{notes: &notify.Recorder{}}
	var after func(model.RejectionCode)
	if refresh != nil {
		after = func(model.RejectionCode) {
			res, err := refresh()
			f.afterPage = &pageFetchedMsg{seq: f.saveSeq, res: res, err: err}
		}
	}
	f.modal = recordmodal.New(svc, recordmodal.Options{
		Key:        key,
		Notifier:   notify.Multi{notify.Log{}, f.notes},
		Perms:      perms,
		AfterEvent: after,
	})
	for _, fld := range formFields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = fld.placeholder
		ti.CharLimit = fld.limit
		f.inputs = append(f.inputs, ti)
	}
	f.setFocus(0)
	return f
}

func (f *recordForm) setFocus(i int) {
	n := len(f.inputs)
	f.focus = ((i % n) + n) % n
	for j := range f.inputs {
		if j == f.focus {
			f.inputs[j].Focus()
		} else {
			f.inputs[j].Blur()
		}
	}
}

// syncInputs copies the modal's values into the inputs, e.g. after a load.
func (f *recordForm) syncInputs() {
	for i, fld := range formFields {
		f.inputs[i].SetValue(f.modal.Field(fld.name))
		f.inputs[i].CursorEnd()
	}
}

func (f *recordForm) busy() bool {
	st := f.modal.State()
	return st == recordmodal.Loading || st == recordmodal.Saving
}

// updateInput feeds a key to the focused input and writes the result to the modal.
func (f *recordForm) updateInput(msg tea.KeyMsg) tea.Cmd {
	if f.busy() {
		return nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	_ = f.modal.SetField(formFields[f.focus].name, f.inputs[f.focus])
	return cmd
}

// firstError is the first failed rule, or "".
func (f *recordForm) firstError() string {
	errs := f.modal.Errors()
	if len(errs) == 0 {
		return ""
	}
	return errs[0].String()
}

func (f *recordForm) view(width int, spin string) string {
	bodyW := modalBodyWidth(width)
	errs := f.modal.Errors()

	var parts []string
	for i, fld := range formFields {
		errText := ""
		if f.showErrors {
			if fe := errs.For(fld.name); len(fe) > 0 {
				errText = fe[0].Message
			}
		}
		f.inputs[i].Width = bodyW - 3
		parts = append(parts, renderLabeledInput(bodyW, fld.label, i == f.focus, errText, f.inputs[i].View()))
	}

	var status string
	switch f.modal.State() {
	case recordmodal.Loading:
		status = spin + " Loading…"
	case recordmodal.Saving:
		status = spin + " Saving…"
	default:
		btn := lipgloss.NewStyle().Padding(0, 1)
		if f.modal.Disabled() {
			status = btn.Foreground(colorMuted).Background(colorControlBg).Render("Save")
		} else {
			status = btn.Bold(true).Foreground(colorAccentFg).Background(colorAccent).Render("Save")
		}
	}

	help := styleMuted().Width(bodyW).Render("tab: next field   enter/ctrl+s: save   esc: close")
	content := strings.Join(parts, "\n\n") + "\n\n" + status + "\n\n" + help
	return renderModalBox(width, f.modal.Title(), content)
}
