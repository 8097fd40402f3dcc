package api

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"qadmin/internal/model"
)

const (
	RejectionCodesPath = "/rejection_codes"
	BulkUploadPath     = "/functions/bulk_upload_tools/execute"
)

var errMissingKey = errors.New("missing rejection code key")

// RejectionCodes groups the rejection-code endpoints.
type RejectionCodes struct {
	c *Client
}

func (c *Client) RejectionCodes() *RejectionCodes {
	return &RejectionCodes{c: c}
}

func keyPath(key string) string {
	return RejectionCodesPath + "/" + url.PathEscape(strings.TrimSpace(key))
}

func (s *RejectionCodes) List(ctx context.Context, q ListQuery) (model.ListEnvelope, error) {
	var out model.ListEnvelope
	if err := s.c.Get(ctx, RejectionCodesPath, q.Values(), &out); err != nil {
		return model.ListEnvelope{}, err
	}
	if out.Objects == nil {
		out.Objects = []model.RejectionCode{}
	}
	return out, nil
}

func (s *RejectionCodes) Get(ctx context.Context, key string) (model.RejectionCode, error) {
	if strings.TrimSpace(key) == "" {
		return model.RejectionCode{}, errMissingKey
	}
	var out model.ObjectEnvelope[model.RejectionCode]
	if err := s.c.Get(ctx, keyPath(key), nil, &out); err != nil {
		return model.RejectionCode{}, err
	}
	return out.Object, nil
}

func (s *RejectionCodes) Create(ctx context.Context, obj model.GenericObject) (model.RejectionCode, error) {
	var out model.ObjectEnvelope[model.RejectionCode]
	body := model.ObjectEnvelope[model.GenericObject]{Object: obj}
	if err := s.c.Post(ctx, RejectionCodesPath, nil, body, &out); err != nil {
		return model.RejectionCode{}, err
	}
	return out.Object, nil
}

func (s *RejectionCodes) Update(ctx context.Context, key string, obj model.GenericObject) (model.RejectionCode, error) {
	if strings.TrimSpace(key) == "" {
		return model.RejectionCode{}, errMissingKey
	}
	var out model.ObjectEnvelope[model.RejectionCode]
	body := model.ObjectEnvelope[model.GenericObject]{Object: obj}
	if err := s.c.Put(ctx, keyPath(key), body, &out); err != nil {
		return model.RejectionCode{}, err
	}
	return out.Object, nil
}

func (s *RejectionCodes) Delete(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return errMissingKey
	}
	return s.c.Delete(ctx, keyPath(key), nil)
}

// BulkRow is one imported record.
type BulkRow struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// BulkUploadRequest is the body of the bulk upload tool.
type BulkUploadRequest struct {
	Type string    `json:"type"`
	Rows []BulkRow `json:"rows"`
}

// BulkRowError reports one row the server refused; Row is 0-based within the batch.
type BulkRowError struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

type BulkUploadResult struct {
	TestMode bool           `json:"test_mode"`
	Accepted int            `json:"accepted"`
	Created  int            `json:"created"`
	Errors   []BulkRowError `json:"errors,omitempty"`
}

// BulkUpload posts rows to the bulk upload tool. In test mode the server validates
// without writing.
func (s *RejectionCodes) BulkUpload(ctx context.Context, rows []BulkRow, testMode bool) (BulkUploadResult, error) {
	q := url.Values{}
	q.Set("test_mode", strconv.FormatBool(testMode))
	body := BulkUploadRequest{Type: model.TypeRejectionCode, Rows: rows}
	var out BulkUploadResult
	if err := s.c.Post(ctx, BulkUploadPath, q, body, &out); err != nil {
		return BulkUploadResult{}, err
	}
	return out, nil
}
