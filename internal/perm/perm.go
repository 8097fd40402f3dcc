// Package perm answers capability questions for the admin UI.
//
// A denied capability only disables or hides a control; the server enforces
// the same rules independently.
package perm

import (
	"strings"
)

type Action string

const (
	ActionAll    Action = "ALL"
	ActionRead   Action = "READ"
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

// Domain and resource of rejection codes.
const (
	DomainQuality         = "quality"
	ResourceRejectionCode = "rejection_code"
)

// Actions lists every action that can be granted, in display order.
var Actions = []Action{ActionAll, ActionRead, ActionCreate, ActionUpdate, ActionDelete}

// ParseAction accepts any case and surrounding whitespace.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Actions {
		if a == known {
			return a, true
		}
	}
	return "", false
}

// Checker reports whether the current user may perform action on resource in domain.
type Checker interface {
	CanAccess(domain, resource string, action Action) bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(domain, resource string, action Action) bool

func (f CheckerFunc) CanAccess(domain, resource string, action Action) bool {
	return f(domain, resource, action)
}

// AllowAll grants everything.
var AllowAll Checker = CheckerFunc(func(string, string, Action) bool { return true })

// DenyAll grants nothing.
var DenyAll Checker = CheckerFunc(func(string, string, Action) bool { return false })

// Grant is one granted triple. Empty Domain or Resource match anything.
type Grant struct {
	Domain   string
	Resource string
	Action   Action
}

// Static is a fixed list of grants, typically loaded from config.
type Static struct {
	Grants []Grant
}

func (s Static) CanAccess(domain, resource string, action Action) bool {
	domain = strings.TrimSpace(domain)
	resource = strings.TrimSpace(resource)
	for _, g := range s.Grants {
		if g.Domain != "" && g.Domain != domain {
			continue
		}
		if g.Resource != "" && g.Resource != resource {
			continue
		}
		// ALL implies every action, including READ.
		if g.Action == ActionAll || g.Action == action {
			return true
		}
	}
	return false
}

// RejectionCodes is the capability set the rejection-code screens care about.
type RejectionCodes struct {
	Create bool
	Update bool
	Delete bool
}

// ForRejectionCodes evaluates c once for the three write actions.
func ForRejectionCodes(c Checker) RejectionCodes {
	if c == nil {
		return RejectionCodes{}
	}
	return RejectionCodes{
		Create: c.CanAccess(DomainQuality, ResourceRejectionCode, ActionCreate),
		Update: c.CanAccess(DomainQuality, ResourceRejectionCode, ActionUpdate),
		Delete: c.CanAccess(DomainQuality, ResourceRejectionCode, ActionDelete),
	}
}
