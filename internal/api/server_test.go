package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MikeSquared-Agency/nickfinder/internal/finder"
	"github.com/MikeSquared-Agency/nickfinder/internal/report"
)

func testServer() *Server {
	return NewServer(8751, &report.Document{
		Result: []finder.Record{
			{TimestampMs: 100, Nickname: "Bob"},
			{TimestampMs: 300, Nickname: "Bobby"},
			{TimestampMs: 200, Nickname: "Bob"},
		},
		Length: 3,
	})
}

func TestHealthEndpoint(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestListRecordsEndpoint(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("GET", "/api/v1/nicknames", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body report.Document
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Length != 3 || len(body.Result) != 3 {
		t.Fatalf("expected 3 records, got length=%d records=%d", body.Length, len(body.Result))
	}
	if body.Result[1].Nickname != "Bobby" {
		t.Errorf("expected order preserved, got %+v", body.Result)
	}
}

func TestSummaryEndpoint(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("GET", "/api/v1/nicknames/summary", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Distinct  int                    `json:"distinct"`
		Nicknames []report.NicknameCount `json:"nicknames"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Distinct != 2 {
		t.Errorf("expected 2 distinct, got %d", body.Distinct)
	}
	if body.Nicknames[0].Nickname != "Bob" || body.Nicknames[0].Count != 2 {
		t.Errorf("unexpected first entry %+v", body.Nicknames[0])
	}
	if body.Nicknames[0].FirstSeenMs != 100 || body.Nicknames[0].LastSeenMs != 200 {
		t.Errorf("unexpected seen range %+v", body.Nicknames[0])
	}
}

func TestNicknameEndpoint(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("GET", "/api/v1/nicknames/Bob", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Nickname string          `json:"nickname"`
		Count    int             `json:"count"`
		Records  []finder.Record `json:"records"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Count != 2 || len(body.Records) != 2 {
		t.Errorf("expected 2 records for Bob, got %d", body.Count)
	}
}

func TestNicknameEndpoint_NotFound(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("GET", "/api/v1/nicknames/Alice", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := testServer()

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
