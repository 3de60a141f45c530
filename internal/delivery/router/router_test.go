package router

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"advertisement-service/internal/infrastructure/events"
	"advertisement-service/internal/infrastructure/metrics"
	"advertisement-service/internal/repository"
	"advertisement-service/internal/service"
	"advertisement-service/pkg/database"
	"advertisement-service/pkg/logger"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

const notFoundBody = `{"status":"error","description":"Advertisement not found"}`

type record struct {
	ID          int64   `json:"id"`
	Header      string  `json:"header"`
	Description *string `json:"description"`
	CreatedAt   string  `json:"created_at"`
	Owner       int64   `json:"owner"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := database.NewDatabase(database.Options{Dialect: database.SQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("NewDatabase: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.ResetSchema(context.Background()); err != nil {
		t.Fatalf("ResetSchema: %v", err)
	}

	reg := prometheus.NewRegistry()
	loggers := logger.Discard()
	repo := repository.NewAdvertisementRepository(store, metrics.NewRepositoryMetrics(reg))
	svc := service.NewAdvertisementService(repo, events.NopPublisher{}, loggers, metrics.NewServiceMetrics(reg))

	r := chi.NewRouter()
	SetupMiddleware(r, loggers, nil)
	SetupAdvertisementRoutes(r, store, svc, loggers, metrics.NewHandlerMetrics(reg))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, reader)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, data
}

func create(t *testing.T, srv *httptest.Server, body string) int64 {
	t.Helper()

	code, data := do(t, srv, http.MethodPost, "/api/v1/advertisement/", body)
	if code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", code, data)
	}

	var resp struct {
		Message string `json:"message"`
		ID      int64  `json:"id"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if resp.Message != "add new advertisement" {
		t.Errorf("message = %q", resp.Message)
	}
	return resp.ID
}

func get(t *testing.T, srv *httptest.Server, id int64) record {
	t.Helper()

	code, data := do(t, srv, http.MethodGet, "/api/v1/advertisement/"+itoa(id), "")
	if code != http.StatusOK {
		t.Fatalf("get status = %d, body %s", code, data)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	return rec
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestCreateThenGet(t *testing.T) {
	srv := newTestServer(t)

	id := create(t, srv, `{"header":"bike","description":"red","owner":3}`)
	rec := get(t, srv, id)

	if rec.ID != id || rec.Header != "bike" || rec.Description == nil || *rec.Description != "red" || rec.Owner != 3 {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.CreatedAt == "" {
		t.Fatal("created_at is empty")
	}
	if _, err := time.Parse(time.RFC3339Nano, rec.CreatedAt); err != nil {
		t.Errorf("created_at %q is not ISO-8601: %v", rec.CreatedAt, err)
	}
}

func TestGetMissingRecord(t *testing.T) {
	srv := newTestServer(t)

	code, data := do(t, srv, http.MethodGet, "/api/v1/advertisement/999999", "")
	if code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", code)
	}
	if string(data) != notFoundBody {
		t.Errorf("body = %s", data)
	}
}

func TestListEmpty(t *testing.T) {
	srv := newTestServer(t)

	code, data := do(t, srv, http.MethodGet, "/api/v1/advertisement/", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if want := `{"response":{"count":0,"items":{}}}`; string(data) != want {
		t.Errorf("body = %s, want %s", data, want)
	}
}

func TestListKeysByPosition(t *testing.T) {
	srv := newTestServer(t)

	first := create(t, srv, `{"header":"one","owner":1}`)
	second := create(t, srv, `{"header":"two","owner":1}`)
	if first != 1 || second != 2 {
		t.Fatalf("ids = %d, %d", first, second)
	}

	// Removing record 1 makes positional keys differ from record ids.
	if code, _ := do(t, srv, http.MethodDelete, "/api/v1/advertisement/1", ""); code != http.StatusNoContent {
		t.Fatalf("delete status = %d", code)
	}
	create(t, srv, `{"header":"three","owner":1}`)

	code, data := do(t, srv, http.MethodGet, "/api/v1/advertisement/", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}

	var resp struct {
		Response struct {
			Count int               `json:"count"`
			Items map[string]record `json:"items"`
		} `json:"response"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if resp.Response.Count != 2 || len(resp.Response.Items) != 2 {
		t.Fatalf("count = %d, items = %d", resp.Response.Count, len(resp.Response.Items))
	}
	for _, key := range []string{"0", "1"} {
		if _, ok := resp.Response.Items[key]; !ok {
			t.Errorf("missing positional key %q in %s", key, data)
		}
	}
	if _, ok := resp.Response.Items["2"]; ok {
		t.Errorf("items keyed by record id: %s", data)
	}
}

func TestListTwoRecords(t *testing.T) {
	srv := newTestServer(t)

	create(t, srv, `{"header":"one","owner":1}`)
	create(t, srv, `{"header":"two","owner":2}`)

	_, data := do(t, srv, http.MethodGet, "/api/v1/advertisement/", "")

	var resp struct {
		Response struct {
			Count int               `json:"count"`
			Items map[string]record `json:"items"`
		} `json:"response"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Response.Count != 2 {
		t.Errorf("count = %d, want 2", resp.Response.Count)
	}
	if _, ok := resp.Response.Items["0"]; !ok {
		t.Errorf("missing key 0: %s", data)
	}
	if _, ok := resp.Response.Items["1"]; !ok {
		t.Errorf("missing key 1: %s", data)
	}
}

func TestUpdateHeaderOnly(t *testing.T) {
	srv := newTestServer(t)

	id := create(t, srv, `{"header":"bike","description":"red","owner":3}`)
	before := get(t, srv, id)

	code, data := do(t, srv, http.MethodPatch, "/api/v1/advertisement/"+itoa(id), `{"header":"car"}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d, body %s", code, data)
	}

	var resp struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if want := "advertisement №1 updated"; resp.Message != want {
		t.Errorf("message = %q, want %q", resp.Message, want)
	}

	after := get(t, srv, id)
	if after.Header != "car" {
		t.Errorf("header = %q", after.Header)
	}
	if after.ID != before.ID || after.Owner != before.Owner || after.CreatedAt != before.CreatedAt ||
		after.Description == nil || *after.Description != *before.Description {
		t.Errorf("fields changed: before %+v after %+v", before, after)
	}
}

func TestUpdateMissingRecord(t *testing.T) {
	srv := newTestServer(t)

	code, data := do(t, srv, http.MethodPatch, "/api/v1/advertisement/999999", `{"header":"car"}`)
	if code != http.StatusNotFound || string(data) != notFoundBody {
		t.Errorf("status = %d, body %s", code, data)
	}
}

func TestUpdateRejectsUnknownField(t *testing.T) {
	srv := newTestServer(t)

	id := create(t, srv, `{"header":"bike","owner":3}`)
	before := get(t, srv, id)

	code, data := do(t, srv, http.MethodPatch, "/api/v1/advertisement/"+itoa(id), `{"id":77,"header":"car"}`)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, body %s", code, data)
	}

	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &resp); err != nil || resp.Status != "error" {
		t.Errorf("error body = %s", data)
	}

	if after := get(t, srv, id); after != before {
		t.Errorf("record changed after rejected update: %+v", after)
	}
}

func TestCreateMalformed(t *testing.T) {
	srv := newTestServer(t)

	for _, body := range []string{
		`not json`,
		`{"header":"bike"}`,
		`{"header":"bike","owner":3,"created_at":"2020-01-01"}`,
	} {
		code, data := do(t, srv, http.MethodPost, "/api/v1/advertisement/", body)
		if code != http.StatusBadRequest {
			t.Errorf("body %s: status = %d, response %s", body, code, data)
		}
	}

	_, data := do(t, srv, http.MethodGet, "/api/v1/advertisement/", "")
	if want := `{"response":{"count":0,"items":{}}}`; string(data) != want {
		t.Errorf("malformed create persisted something: %s", data)
	}
}

func TestHeaderLongerThan32IsNotStored(t *testing.T) {
	srv := newTestServer(t)

	body := `{"header":"` + strings.Repeat("x", 33) + `","owner":1}`
	code, data := do(t, srv, http.MethodPost, "/api/v1/advertisement/", body)
	if code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body %s", code, data)
	}

	_, data = do(t, srv, http.MethodGet, "/api/v1/advertisement/", "")
	if want := `{"response":{"count":0,"items":{}}}`; string(data) != want {
		t.Errorf("over-long header persisted: %s", data)
	}
}

func TestUpdateDescriptionLongerThan32IsNotStored(t *testing.T) {
	srv := newTestServer(t)

	id := create(t, srv, `{"header":"bike","description":"red","owner":3}`)
	before := get(t, srv, id)

	body := `{"description":"` + strings.Repeat("y", 33) + `"}`
	if code, data := do(t, srv, http.MethodPatch, "/api/v1/advertisement/"+itoa(id), body); code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body %s", code, data)
	}

	if after := get(t, srv, id); after != before {
		t.Errorf("record changed: before %+v after %+v", before, after)
	}
}

func TestUpdateOversizedBody(t *testing.T) {
	srv := newTestServer(t)

	id := create(t, srv, `{"header":"bike","owner":3}`)
	oversized := `{"header":"` + strings.Repeat("z", 1<<20) + `"}`

	patch := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPatch, path, strings.NewReader(oversized))
		rec := httptest.NewRecorder()
		srv.Config.Handler.ServeHTTP(rec, req)
		return rec
	}

	if rec := patch("/api/v1/advertisement/999999"); rec.Code != http.StatusNotFound || rec.Body.String() != notFoundBody {
		t.Errorf("missing record: status = %d, body %s", rec.Code, rec.Body.String())
	}

	if rec := patch("/api/v1/advertisement/" + itoa(id)); rec.Code != http.StatusBadRequest {
		t.Errorf("existing record: status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestDeleteTwice(t *testing.T) {
	srv := newTestServer(t)

	id := create(t, srv, `{"header":"bike","owner":3}`)
	path := "/api/v1/advertisement/" + itoa(id)

	code, data := do(t, srv, http.MethodDelete, path, "")
	if code != http.StatusNoContent || len(data) != 0 {
		t.Fatalf("delete status = %d, body %q", code, data)
	}

	if code, data := do(t, srv, http.MethodGet, path, ""); code != http.StatusNotFound || string(data) != notFoundBody {
		t.Errorf("get after delete: %d %s", code, data)
	}
	if code, data := do(t, srv, http.MethodDelete, path, ""); code != http.StatusNotFound || string(data) != notFoundBody {
		t.Errorf("second delete: %d %s", code, data)
	}
}

func TestRouting(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/v1/advertisement/abc", http.StatusNotFound},
		{http.MethodGet, "/api/v1/advertisement/-1", http.StatusNotFound},
		{http.MethodGet, "/api/v2/advertisement/", http.StatusNotFound},
		{http.MethodPut, "/api/v1/advertisement/1", http.StatusMethodNotAllowed},
		{http.MethodDelete, "/api/v1/advertisement/", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/v1/advertisement/1", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/v1/advertisement/99999999999999999999", http.StatusNotFound},
	}

	for _, tt := range tests {
		code, _ := do(t, srv, tt.method, tt.path, "")
		if code != tt.want {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.path, code, tt.want)
		}
	}
}
