package utils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestJSONErrorUsesEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONError(rec, 429, "ingest queue full")

	if rec.Code != 429 {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	var env ErrorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Error != "ingest queue full" {
		t.Fatalf("error = %q", env.Error)
	}
}

func TestJSONWriteSetsStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := JSONWrite(rec, 202, map[string]string{"status": "accepted"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if rec.Code != 202 {
		t.Fatalf("status = %d, want 202", rec.Code)
	}
}
