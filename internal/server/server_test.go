package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"emojinews/internal/store"
)

func testStore(t *testing.T) *store.Store {
	t.Helper()
	base := t.TempDir()
	return store.New(filepath.Join(base, "news"), filepath.Join(base, "thumbnails"))
}

func TestIndexRouteEmpty(t *testing.T) {
	srv, err := New(testStore(t))
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No records yet") {
		t.Error("expected empty-state message in body")
	}
}

func TestIndexRouteListsRecords(t *testing.T) {
	st := testStore(t)
	ts := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	if _, err := st.Write(&store.Record{Headline: "BIG HEADLINE", Text: "body"}, "Big Story", ts, nil); err != nil {
		t.Fatal(err)
	}

	srv, err := New(st)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "BIG HEADLINE") {
		t.Error("expected headline in index body")
	}
}

func TestRecordRoute(t *testing.T) {
	st := testStore(t)
	ts := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	name, err := st.Write(&store.Record{Headline: "H", Text: "pasta body text"}, "Story", ts, nil)
	if err != nil {
		t.Fatal(err)
	}

	srv, err := New(st)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/record/"+name, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "pasta body text") {
		t.Error("expected record text in body")
	}
}

func TestRecordRouteNotFound(t *testing.T) {
	srv, err := New(testStore(t))
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("GET", "/record/absent.json", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}
