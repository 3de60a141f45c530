package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondWithErrorJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithErrorJSON(rec, http.StatusNotFound, "Advertisement not found")

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
	want := `{"status":"error","description":"Advertisement not found"}`
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %s, want %s", got, want)
	}
}

func TestRespondWithJSON_Unmarshalable(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithJSON(rec, http.StatusOK, map[string]interface{}{"ch": make(chan int)})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestRespondNoContent(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondNoContent(rec)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("body should be empty, got %q", rec.Body.String())
	}
}

func TestErr(t *testing.T) {
	attr := Err(errors.New("boom"))
	if attr.Key != "error" || attr.Value.String() != "boom" {
		t.Errorf("unexpected attr %v", attr)
	}
	if Err(nil).Value.String() != "<nil>" {
		t.Errorf("nil error should render as <nil>")
	}
}
