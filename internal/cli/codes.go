package cli

import (
	"errors"
	"strconv"
	"strings"

	"qadmin/internal/api"
	"qadmin/internal/listview"
	"qadmin/internal/model"
	"qadmin/internal/notify"
	"qadmin/internal/perm"
	"qadmin/internal/recordmodal"

	"github.com/spf13/cobra"
)

func (app *App) listView(cmd *cobra.Command) *listview.ListView {
	return listview.New(app.client(), listview.Options{
		Perms:    app.cfg.Checker(),
		Notifier: notify.Writer{W: cmd.ErrOrStderr()},
		PageSize: app.cfg.PageSize,
	})
}

func newListCmd(app *App) *cobra.Command {
	var (
		page int
		q    queryFlags
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rejection codes (one page)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return writeErr(cmd, errors.New("--page must be at least 1"))
			}
			sorts, err := q.sorts()
			if err != nil {
				return writeErr(cmd, err)
			}
			filters, err := q.descriptors()
			if err != nil {
				return writeErr(cmd, err)
			}

			lv := app.listView(cmd)
			res, err := lv.FetchPage(cmd.Context(), app.cfg.PageSize, page-1, sorts, filters)
			if err != nil {
				return writeErr(cmd, err)
			}

			hints := []string{"qadmin show <key>"}
			if page < res.Pages {
				hints = append(hints, "qadmin list --page "+strconv.Itoa(page+1))
			}
			return writeOut(cmd, app, map[string]any{
				"data": codeList(res.Rows),
				"meta": map[string]any{
					"page":        page,
					"per":         app.cfg.PageSize,
					"total_pages": res.Pages,
					"returned":    len(res.Rows),
				},
				"_hints": hints,
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "Page number (1-based)")
	q.register(cmd)
	return cmd
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <key>",
		Short: "Show one rejection code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			rc, err := app.client().Get(cmd.Context(), key)
			if err != nil {
				if api.IsNotFound(err) {
					return writeErr(cmd, errNotFound("rejection code", key))
				}
				return writeErr(cmd, errors.New(api.ErrorMessage(err)))
			}
			return writeOut(cmd, app, map[string]any{"data": codeRecord(rc)})
		},
	}
}

// recordFlags are the editable fields of create and update.
type recordFlags struct {
	code        string
	name        string
	description string
}

func (f *recordFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.code, "code", "", "Code")
	cmd.Flags().StringVar(&f.name, "name", "", "Name")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
}

// apply copies the flags the user set into the form.
func (f *recordFlags) apply(cmd *cobra.Command, m *recordmodal.Modal) error {
	for flag, field := range map[string]string{
		"code":        recordmodal.FieldCode,
		"name":        recordmodal.FieldName,
		"description": recordmodal.FieldDescription,
	} {
		if !cmd.Flags().Changed(flag) {
			continue
		}
		v, _ := cmd.Flags().GetString(flag)
		if err := m.SetField(field, v); err != nil {
			return err
		}
	}
	return nil
}

// save runs the record form non-interactively: open, apply flags, save.
func (app *App) save(cmd *cobra.Command, key string, f *recordFlags) (model.RejectionCode, error) {
	m := recordmodal.New(app.client(), recordmodal.Options{
		Key:      key,
		Notifier: notify.Writer{W: cmd.ErrOrStderr()},
		Perms:    app.cfg.Checker(),
	})
	if !m.CanSave() {
		action := perm.ActionUpdate
		if m.IsNew() {
			action = perm.ActionCreate
		}
		return model.RejectionCode{}, errPermission(action)
	}
	if err := m.Open(cmd.Context()); err != nil {
		if api.IsNotFound(err) {
			return model.RejectionCode{}, errNotFound("rejection code", key)
		}
		return model.RejectionCode{}, reportedError{err: err}
	}
	defer m.Close()

	if err := f.apply(cmd, m); err != nil {
		return model.RejectionCode{}, err
	}
	if !m.Validate() {
		return model.RejectionCode{}, invalidError{messages: m.Errors().Messages()}
	}
	rc, err := m.Save(cmd.Context())
	if err != nil {
		return model.RejectionCode{}, reportedError{err: err}
	}
	return rc, nil
}

func newCreateCmd(app *App) *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a rejection code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rc, err := app.save(cmd, "", &f)
			if err != nil {
				return fail(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": codeRecord(rc)})
		},
	}
	f.register(cmd)
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newUpdateCmd(app *App) *cobra.Command {
	var f recordFlags
	cmd := &cobra.Command{
		Use:   "update <key>",
		Short: "Update a rejection code; unset flags keep their value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			if key == "" {
				return writeErr(cmd, errors.New("missing key"))
			}
			rc, err := app.save(cmd, key, &f)
			if err != nil {
				return fail(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": codeRecord(rc)})
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <key>",
		Short: "Delete a rejection code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.TrimSpace(args[0])
			lv := app.listView(cmd)
			if !lv.Actions(model.RejectionCode{Key: key}).Delete.Enabled {
				return writeErr(cmd, errPermission(perm.ActionDelete))
			}

			c := app.client()
			row, err := c.Get(cmd.Context(), key)
			if err != nil {
				if api.IsNotFound(err) {
					return writeErr(cmd, errNotFound("rejection code", key))
				}
				return writeErr(cmd, errors.New(api.ErrorMessage(err)))
			}

			_, err = lv.Delete(cmd.Context(), row)
			var fe *listview.FetchError
			if err != nil && !errors.As(err, &fe) {
				return fail(cmd, reportedError{err: err})
			}
			return writeOut(cmd, app, map[string]any{
				"data": map[string]any{"generic_object_key": key, "deleted": true},
			})
		},
	}
}
