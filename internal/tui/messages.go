package tui

import (
	"qadmin/internal/listview"
	"qadmin/internal/model"
	"qadmin/internal/notify"
	"qadmin/internal/recordmodal"
)

// pageFetchedMsg carries one fetch result. seq matches Model.fetchSeq; older
// responses are discarded.
type pageFetchedMsg struct {
	seq int
	res listview.Result
	err error
}

type formLoadedMsg struct {
	modal *recordmodal.Modal
	err   error
	notes []notify.Message
}

type formSavedMsg struct {
	modal *recordmodal.Modal
	rc    model.RejectionCode
	err   error
	notes []notify.Message
	// page is the refresh triggered after a successful save.
	page *pageFetchedMsg
}

type deletedMsg struct {
	page  pageFetchedMsg
	err   error
	notes []notify.Message
}

type exportedMsg struct {
	path string
	rows int
	err  error
}

type flashDoneMsg struct{ seq int }
