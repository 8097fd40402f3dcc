package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"qadmin/internal/api"
	"qadmin/internal/log"
	"qadmin/internal/model"
	"qadmin/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.Discard()
}

func newTestServer(t *testing.T, token string) (*httptest.Server, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "qadmin.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	srv := httptest.NewServer(NewRouter(Config{Token: token, Repo: st}))
	t.Cleanup(srv.Close)
	return srv, st
}

func newClient(srv *httptest.Server, token string) *api.RejectionCodes {
	return api.New(srv.URL+"/api/v1", token, 5*time.Second).RejectionCodes()
}

func mustCreate(t *testing.T, rc *api.RejectionCodes, code, name, desc string) model.RejectionCode {
	t.Helper()
	out, err := rc.Create(context.Background(), model.NewGenericObject(code, name, desc))
	require.NoError(t, err)
	return out
}

func TestTotalPages(t *testing.T) {
	t.Parallel()
	tests := []struct {
		total, per, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{25, 10, 3},
		{5, 0, 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, totalPages(tt.total, tt.per), "total=%d per=%d", tt.total, tt.per)
	}
}

func TestCRUDRoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, "")
	rc := newClient(srv, "")
	ctx := context.Background()

	created := mustCreate(t, rc, "C1", "Dent", "Dented unit")
	assert.NotEmpty(t, created.Key)
	assert.Equal(t, model.TypeRejectionCode, created.Type)
	assert.Equal(t, "C1", created.Code)

	got, err := rc.Get(ctx, created.Key)
	require.NoError(t, err)
	assert.Equal(t, "Dent", got.Name)

	updated, err := rc.Update(ctx, created.Key, model.NewGenericObject("C1", "Dent (major)", "Dented unit"))
	require.NoError(t, err)
	assert.Equal(t, "Dent (major)", updated.Name)
	assert.Equal(t, created.Key, updated.Key)

	require.NoError(t, rc.Delete(ctx, created.Key))

	_, err = rc.Get(ctx, created.Key)
	require.Error(t, err)
	assert.True(t, api.IsNotFound(err))
	assert.Equal(t, "Not Found", api.ErrorMessage(err))
}

func TestListPagingSortingFiltering(t *testing.T) {
	srv, _ := newTestServer(t, "")
	rc := newClient(srv, "")
	ctx := context.Background()

	mustCreate(t, rc, "C3", "Crack", "Hairline crack")
	mustCreate(t, rc, "A1", "Abrasion", "Surface abrasion")
	mustCreate(t, rc, "C1", "Chip", "Chipped edge")

	env, err := rc.List(ctx, api.ListQuery{Page: 1, Per: 2, OrderBy: "code", Order: api.OrderAsc})
	require.NoError(t, err)
	assert.Equal(t, 2, env.TotalPages)
	require.Len(t, env.Objects, 2)
	assert.Equal(t, "A1", env.Objects[0].Code)
	assert.Equal(t, "C1", env.Objects[1].Code)

	env, err = rc.List(ctx, api.ListQuery{Page: 2, Per: 2, OrderBy: "code", Order: api.OrderAsc})
	require.NoError(t, err)
	require.Len(t, env.Objects, 1)
	assert.Equal(t, "C3", env.Objects[0].Code)

	env, err = rc.List(ctx, api.ListQuery{
		Page: 1, Per: 10, OrderBy: "name", Order: api.OrderDesc,
		RegexFilters: []api.RegexFilter{{Field: "code", Value: "^C"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, env.TotalPages)
	require.Len(t, env.Objects, 2)
	assert.Equal(t, "Crack", env.Objects[0].Name)
	assert.Equal(t, "Chip", env.Objects[1].Name)
}

func TestListEmptyHasOnePage(t *testing.T) {
	srv, _ := newTestServer(t, "")
	env, err := newClient(srv, "").List(context.Background(), api.ListQuery{Page: 1, Per: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, env.TotalPages)
	assert.Empty(t, env.Objects)
}

func TestListRejectsBadQueries(t *testing.T) {
	srv, _ := newTestServer(t, "")
	rc := newClient(srv, "")

	tests := []struct {
		name string
		q    api.ListQuery
		want string
	}{
		{"bad regex", api.ListQuery{Page: 1, Per: 10, RegexFilters: []api.RegexFilter{{Field: "code", Value: "("}}}, "Invalid filter"},
		{"unknown filter field", api.ListQuery{Page: 1, Per: 10, RegexFilters: []api.RegexFilter{{Field: "key", Value: "x"}}}, "Invalid filter"},
		{"unknown sort", api.ListQuery{Page: 1, Per: 10, OrderBy: "actions"}, "Invalid sort field: actions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rc.List(context.Background(), tt.q)
			require.Error(t, err)
			var apiErr *api.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Equal(t, tt.want, api.ErrorMessage(err))
		})
	}
}

func TestCreateValidation(t *testing.T) {
	srv, _ := newTestServer(t, "")
	rc := newClient(srv, "")

	tests := []struct {
		name string
		obj  model.GenericObject
		want string
	}{
		{"missing code", model.NewGenericObject("", "Dent", ""), "Code is required"},
		{"blank name", model.NewGenericObject("C1", "   ", ""), "Name is required"},
		{"markup in description", model.NewGenericObject("C1", "Dent", "<b>x</b>"), "Description contains unsafe content (markup)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rc.Create(context.Background(), tt.obj)
			require.Error(t, err)
			var apiErr *api.Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
			assert.Equal(t, tt.want, api.ErrorMessage(err))
		})
	}
}

func TestCreateDuplicateCode(t *testing.T) {
	srv, _ := newTestServer(t, "")
	rc := newClient(srv, "")
	mustCreate(t, rc, "C1", "Dent", "")

	_, err := rc.Create(context.Background(), model.NewGenericObject("C1", "Other", ""))
	require.Error(t, err)
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Code already exists", api.ErrorMessage(err))
}

func TestUpdateAndDeleteMissing(t *testing.T) {
	srv, _ := newTestServer(t, "")
	rc := newClient(srv, "")
	ctx := context.Background()

	_, err := rc.Update(ctx, "nope", model.NewGenericObject("C1", "Dent", ""))
	assert.True(t, api.IsNotFound(err))

	err = rc.Delete(ctx, "nope")
	assert.True(t, api.IsNotFound(err))
}

func TestCreateRawPayloadShape(t *testing.T) {
	srv, _ := newTestServer(t, "")

	body := `{"generic_object":{"type":"RejectionCode","code":"C9","name":"Scratch","description":"","properties":{}}}`
	resp, err := http.Post(srv.URL+"/api/v1/rejection_codes", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var out struct {
		Object map[string]any `json:"generic_object"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "C9", out.Object["code"])
	assert.Equal(t, "RejectionCode", out.Object["type"])
	assert.NotEmpty(t, out.Object["generic_object_key"])
}

func TestCreateRejectsOtherTypes(t *testing.T) {
	srv, _ := newTestServer(t, "")
	body := `{"generic_object":{"type":"Defect","code":"C9","name":"Scratch"}}`
	resp, err := http.Post(srv.URL+"/api/v1/rejection_codes", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestBulkUpload(t *testing.T) {
	srv, st := newTestServer(t, "")
	rc := newClient(srv, "")
	ctx := context.Background()
	mustCreate(t, rc, "EX", "Existing", "")

	rows := []api.BulkRow{
		{Code: "B1", Name: "One"},
		{Code: "B2", Name: "Two", Description: "second"},
	}

	res, err := rc.BulkUpload(ctx, rows, true)
	require.NoError(t, err)
	assert.True(t, res.TestMode)
	assert.Equal(t, 2, res.Accepted)
	assert.Equal(t, 0, res.Created)
	exists, err := st.CodeExists(ctx, "B1")
	require.NoError(t, err)
	assert.False(t, exists, "test mode must not write")

	res, err = rc.BulkUpload(ctx, rows, false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	assert.Empty(t, res.Errors)

	env, err := rc.List(ctx, api.ListQuery{Page: 1, Per: 10})
	require.NoError(t, err)
	assert.Len(t, env.Objects, 3)
}

func TestBulkUploadReportsRowErrors(t *testing.T) {
	srv, st := newTestServer(t, "")
	rc := newClient(srv, "")
	ctx := context.Background()
	mustCreate(t, rc, "EX", "Existing", "")

	res, err := rc.BulkUpload(ctx, []api.BulkRow{
		{Code: "B1", Name: "One"},
		{Code: "", Name: "Missing code"},
		{Code: "B1", Name: "Again"},
		{Code: "EX", Name: "Clash"},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Created)
	assert.Equal(t, 1, res.Accepted)
	require.Len(t, res.Errors, 3)
	assert.Equal(t, 1, res.Errors[0].Row)
	assert.Equal(t, "Code is required", res.Errors[0].Message)
	assert.Equal(t, 2, res.Errors[1].Row)
	assert.Equal(t, "Code duplicates row 0", res.Errors[1].Message)
	assert.Equal(t, 3, res.Errors[2].Row)
	assert.Equal(t, "Code already exists", res.Errors[2].Message)

	exists, err := st.CodeExists(ctx, "B1")
	require.NoError(t, err)
	assert.False(t, exists, "a batch with errors writes nothing")
}

func TestBearerAuth(t *testing.T) {
	srv, _ := newTestServer(t, "s3cret")

	_, err := newClient(srv, "").List(context.Background(), api.ListQuery{Page: 1, Per: 10})
	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Unauthorized", api.ErrorMessage(err))

	_, err = newClient(srv, "s3cret").List(context.Background(), api.ListQuery{Page: 1, Per: 10})
	assert.NoError(t, err)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestIDEchoed(t *testing.T) {
	srv, _ := newTestServer(t, "")
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set("X-Request-ID", "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get("X-Request-ID"))
}

func TestListUnindexedFilters(t *testing.T) {
	srv, _ := newTestServer(t, "")
	rc := newClient(srv, "")
	mustCreate(t, rc, "C1", "Chip", "")
	mustCreate(t, rc, "D1", "Dent", "")

	v := url.Values{}
	v.Add("page", "1")
	v.Add("per", "10")
	v.Add("regex_filters[][field]", "name")
	v.Add("regex_filters[][value]", "^D")
	resp, err := http.Get(srv.URL + "/api/v1/rejection_codes?" + v.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env model.ListEnvelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.Len(t, env.Objects, 1)
	assert.Equal(t, "D1", env.Objects[0].Code)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "qadmin.sqlite"))
	require.NoError(t, err)
	defer st.Close()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, Config{Repo: st}) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
