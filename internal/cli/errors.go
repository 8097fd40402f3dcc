package cli

import (
	"errors"
	"fmt"
	"strings"

	"qadmin/internal/perm"

	"github.com/spf13/cobra"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

type permissionError struct {
	action perm.Action
}

func (e permissionError) Error() string {
	return fmt.Sprintf("permission denied: %s %s requires %s", perm.DomainQuality, perm.ResourceRejectionCode, e.action)
}

func errPermission(action perm.Action) error {
	return permissionError{action: action}
}

type invalidError struct {
	messages []string
}

func (e invalidError) Error() string {
	return "invalid rejection code: " + strings.Join(e.messages, "; ")
}

// reportedError has already been shown to the user by a notifier.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

// fail prints err unless a notifier already did, and returns it.
func fail(cmd *cobra.Command, err error) error {
	var r reportedError
	if errors.As(err, &r) {
		return err
	}
	return writeErr(cmd, err)
}
