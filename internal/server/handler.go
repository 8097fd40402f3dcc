package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"qadmin/internal/api"
	"qadmin/internal/log"
	"qadmin/internal/model"
	"qadmin/internal/store"
	"qadmin/internal/validate"

	"github.com/go-chi/chi/v5"
)

const (
	defaultPer = 20
	maxPer     = 500
)

// Repository is the storage the handlers need; *store.Store implements it.
type Repository interface {
	List(ctx context.Context, p store.ListParams) ([]model.RejectionCode, int, error)
	Get(ctx context.Context, key string) (model.RejectionCode, error)
	Create(ctx context.Context, obj model.GenericObject) (model.RejectionCode, error)
	Update(ctx context.Context, key string, obj model.GenericObject) (model.RejectionCode, error)
	Delete(ctx context.Context, key string) error
	BulkInsert(ctx context.Context, objs []model.GenericObject) (int, error)
	CodeExists(ctx context.Context, code string) (bool, error)
}

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// totalPages is ceil(total/per), never below 1 so an empty table still has a page.
func totalPages(total, per int) int {
	if per <= 0 || total <= 0 {
		return 1
	}
	return (total + per - 1) / per
}

func (h *Handler) ListRejectionCodes(w http.ResponseWriter, r *http.Request) {
	q := api.ParseListQuery(r.URL.Query(), defaultPer)
	if q.Per > maxPer {
		q.Per = maxPer
	}
	if q.OrderBy != "" && !store.IsSortable(q.OrderBy) {
		writeMessages(w, http.StatusBadRequest, "Invalid sort field: "+q.OrderBy)
		return
	}

	params := store.ListParams{
		Offset:  (q.Page - 1) * q.Per,
		Limit:   q.Per,
		OrderBy: q.OrderBy,
		Desc:    q.Order == api.OrderDesc,
	}
	for _, f := range q.RegexFilters {
		if !store.IsFilterable(f.Field) || store.ValidatePattern(f.Value) != nil {
			writeMessages(w, http.StatusBadRequest, "Invalid filter")
			return
		}
		params.Filters = append(params.Filters, store.Filter{Field: f.Field, Pattern: f.Value})
	}

	rows, total, err := h.repo.List(r.Context(), params)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ListEnvelope{
		Objects:    rows,
		TotalPages: totalPages(total, q.Per),
	})
}

func (h *Handler) GetRejectionCode(w http.ResponseWriter, r *http.Request) {
	rc, err := h.repo.Get(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ObjectEnvelope[model.RejectionCode]{Object: rc})
}

// decodeObject reads and validates a {"generic_object": {...}} body.
func decodeObject(w http.ResponseWriter, r *http.Request) (model.GenericObject, bool) {
	var env model.ObjectEnvelope[model.GenericObject]
	if err := decodeJSON(w, r, &env); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return model.GenericObject{}, false
	}
	obj := env.Object
	if obj.Type != "" && obj.Type != model.TypeRejectionCode {
		writeMessages(w, http.StatusUnprocessableEntity, "Unsupported type: "+obj.Type)
		return model.GenericObject{}, false
	}
	obj.Type = model.TypeRejectionCode
	obj.Code = strings.TrimSpace(obj.Code)
	obj.Name = strings.TrimSpace(obj.Name)
	if obj.Properties == nil {
		obj.Properties = map[string]any{}
	}
	if err := validate.Check(validate.RejectionCode{Code: obj.Code, Name: obj.Name, Description: obj.Description}); err != nil {
		var ve validate.Errors
		if errors.As(err, &ve) {
			writeMessages(w, http.StatusUnprocessableEntity, ve.Messages()...)
			return model.GenericObject{}, false
		}
		writeStatus(w, http.StatusUnprocessableEntity, err.Error())
		return model.GenericObject{}, false
	}
	return obj, true
}

func (h *Handler) CreateRejectionCode(w http.ResponseWriter, r *http.Request) {
	obj, ok := decodeObject(w, r)
	if !ok {
		return
	}
	rc, err := h.repo.Create(r.Context(), obj)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, model.ObjectEnvelope[model.RejectionCode]{Object: rc})
}

func (h *Handler) UpdateRejectionCode(w http.ResponseWriter, r *http.Request) {
	obj, ok := decodeObject(w, r)
	if !ok {
		return
	}
	rc, err := h.repo.Update(r.Context(), chi.URLParam(r, "key"), obj)
	if err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model.ObjectEnvelope[model.RejectionCode]{Object: rc})
}

func (h *Handler) DeleteRejectionCode(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.Delete(r.Context(), chi.URLParam(r, "key")); err != nil {
		storeErrorToHTTP(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkUpload validates every row and, outside test mode, inserts them all or none.
func (h *Handler) BulkUpload(w http.ResponseWriter, r *http.Request) {
	testMode, _ := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get("test_mode")))

	var req api.BulkUploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Type != "" && req.Type != model.TypeRejectionCode {
		writeMessages(w, http.StatusUnprocessableEntity, "Unsupported type: "+req.Type)
		return
	}

	res := api.BulkUploadResult{TestMode: testMode}
	seen := map[string]int{}
	objs := make([]model.GenericObject, 0, len(req.Rows))
	for i, row := range req.Rows {
		obj := model.NewGenericObject(strings.TrimSpace(row.Code), strings.TrimSpace(row.Name), row.Description)
		if err := validate.Check(validate.RejectionCode{Code: obj.Code, Name: obj.Name, Description: obj.Description}); err != nil {
			res.Errors = append(res.Errors, api.BulkRowError{Row: i, Message: err.Error()})
			continue
		}
		if prev, dup := seen[obj.Code]; dup {
			res.Errors = append(res.Errors, api.BulkRowError{Row: i, Message: "Code duplicates row " + strconv.Itoa(prev)})
			continue
		}
		seen[obj.Code] = i
		exists, err := h.repo.CodeExists(r.Context(), obj.Code)
		if err != nil {
			storeErrorToHTTP(w, err)
			return
		}
		if exists {
			res.Errors = append(res.Errors, api.BulkRowError{Row: i, Message: "Code already exists"})
			continue
		}
		objs = append(objs, obj)
	}
	res.Accepted = len(objs)

	if testMode || len(res.Errors) > 0 {
		writeJSON(w, http.StatusOK, res)
		return
	}

	n, err := h.repo.BulkInsert(r.Context(), objs)
	if err != nil {
		var be *store.BulkError
		if errors.As(err, &be) {
			res.Accepted = 0
			res.Errors = append(res.Errors, api.BulkRowError{Row: be.Row, Message: be.Err.Error()})
			writeJSON(w, http.StatusOK, res)
			return
		}
		storeErrorToHTTP(w, err)
		return
	}
	res.Created = n
	writeJSON(w, http.StatusOK, res)
}

// storeErrorToHTTP maps store errors to responses.
func storeErrorToHTTP(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeStatus(w, http.StatusNotFound, "")
	case errors.Is(err, store.ErrDuplicateCode):
		writeMessages(w, http.StatusConflict, "Code already exists")
	case errors.Is(err, context.Canceled):
		writeStatus(w, http.StatusRequestTimeout, "")
	default:
		log.Errorf("internal error: %v", err)
		writeStatus(w, http.StatusInternalServerError, "")
	}
}
