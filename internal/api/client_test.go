package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"qadmin/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type requestLog struct {
	mu   sync.Mutex
	reqs []recordedRequest
}

func (l *requestLog) all() []recordedRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]recordedRequest(nil), l.reqs...)
}

func newTestServer(t *testing.T, status int, respBody string) (*Client, *requestLog) {
	t.Helper()
	reqs := &requestLog{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		reqs.mu.Lock()
		defer reqs.mu.Unlock()
		reqs.reqs = append(reqs.reqs, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   b,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, respBody)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api/v1", "tok", 5*time.Second), reqs
}

func TestList_EncodesQueryAndDecodesPage(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{"generic_objects":[{"generic_object_key":"k1","code":"C1","name":"Dent","description":""}],"total_pages":3}`)

	q := ListQuery{
		Page:    2,
		Per:     25,
		OrderBy: "name",
		Order:   OrderDesc,
		RegexFilters: []RegexFilter{
			{Field: "code", Value: "^C"},
			{Field: "name", Value: "Dent"},
		},
	}
	page, err := c.RejectionCodes().List(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Objects, 1)
	assert.Equal(t, "k1", page.Objects[0].Key)

	require.Len(t, reqs.all(), 1)
	got := reqs.all()[0]
	assert.Equal(t, http.MethodGet, got.Method)
	assert.Equal(t, "/api/v1/rejection_codes", got.Path)
	assert.Equal(t, "Bearer tok", got.Header.Get("Authorization"))
	assert.NotEmpty(t, got.Header.Get("X-Request-ID"))
	assert.Equal(t, q, ParseListQuery(got.Query, 10))
}

func TestCreate_PostsGenericObject(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusCreated, `{"generic_object":{"generic_object_key":"new","code":"C1","name":"Dent","description":"Dented unit"}}`)

	out, err := c.RejectionCodes().Create(context.Background(), model.NewGenericObject("C1", "Dent", "Dented unit"))
	require.NoError(t, err)
	assert.Equal(t, "new", out.Key)

	require.Len(t, reqs.all(), 1)
	assert.Equal(t, http.MethodPost, reqs.all()[0].Method)
	assert.Equal(t, "/api/v1/rejection_codes", reqs.all()[0].Path)
	assert.JSONEq(t,
		`{"generic_object":{"type":"RejectionCode","code":"C1","name":"Dent","description":"Dented unit","properties":{}}}`,
		string(reqs.all()[0].Body))
}

func TestUpdate_PutsToKeyPath(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{"generic_object":{"generic_object_key":"a b","code":"C1","name":"Dent"}}`)

	_, err := c.RejectionCodes().Update(context.Background(), "a b", model.NewGenericObject("C1", "Dent", ""))
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, reqs.all()[0].Method)
	assert.Equal(t, "/api/v1/rejection_codes/a b", reqs.all()[0].Path)
}

func TestUpdate_RequiresKey(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{}`)

	_, err := c.RejectionCodes().Update(context.Background(), " ", model.NewGenericObject("C1", "Dent", ""))
	require.Error(t, err)
	assert.Empty(t, reqs.all())
}

func TestBulkUpload_SendsTestMode(t *testing.T) {
	c, reqs := newTestServer(t, http.StatusOK, `{"test_mode":true,"accepted":1}`)

	res, err := c.RejectionCodes().BulkUpload(context.Background(), []BulkRow{{Code: "C1", Name: "Dent"}}, true)
	require.NoError(t, err)
	assert.True(t, res.TestMode)
	assert.Equal(t, "true", reqs.all()[0].Query.Get("test_mode"))

	var body BulkUploadRequest
	require.NoError(t, json.Unmarshal(reqs.all()[0].Body, &body))
	assert.Equal(t, model.TypeRejectionCode, body.Type)
	assert.Len(t, body.Rows, 1)
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		status  int
		payload string
		want    string
	}{
		{name: "object status text", status: 400, payload: `{"statusText":"Bad Request"}`, want: "Bad Request"},
		{name: "object without status text", status: 404, payload: `{"error":"nope"}`, want: "Not Found"},
		{name: "list", status: 422, payload: `[{"message":"Invalid filter"},{"message":"second"}]`, want: "Invalid filter"},
		{name: "empty list", status: 422, payload: `[]`, want: UnknownError},
		{name: "null", status: 500, payload: `null`, want: UnknownError},
		{name: "empty body", status: 500, payload: ``, want: UnknownError},
		{name: "html", status: 502, payload: `<html>bad gateway</html>`, want: UnknownError},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := &Error{Method: "GET", Path: "/x", Status: tt.status, StatusText: http.StatusText(tt.status), Payload: json.RawMessage(tt.payload)}
			assert.Equal(t, tt.want, ErrorMessage(err))
		})
	}
}

func TestErrorMessage_TransportFailureIsUnknown(t *testing.T) {
	c := New("http://127.0.0.1:1/api/v1", "", time.Second)
	_, err := c.RejectionCodes().Get(context.Background(), "k")
	require.Error(t, err)
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, UnknownError, ErrorMessage(err))
}

func TestNon2xx_ReturnsError(t *testing.T) {
	c, _ := newTestServer(t, http.StatusNotFound, `{"statusText":"Not Found"}`)

	_, err := c.RejectionCodes().Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "Not Found", ErrorMessage(err))
}
