package pagination

import (
	"net/http/httptest"
	"testing"
)

func TestFromRequestDefaults(t *testing.T) {
	page := FromRequest(httptest.NewRequest("GET", "/api/v1/users", nil))
	if page.Current != 1 || page.Size != 10 {
		t.Fatalf("unexpected defaults: %+v", page)
	}
}

func TestFromRequestClampsSize(t *testing.T) {
	page := FromRequest(httptest.NewRequest("GET", "/api/v1/users?page_size=5000", nil))
	if page.Size != 100 {
		t.Fatalf("expected clamp to 100, got %d", page.Size)
	}
}

func TestFromRequestIgnoresGarbage(t *testing.T) {
	page := FromRequest(httptest.NewRequest("GET", "/api/v1/users?current_page=x&page_size=-3", nil))
	if page.Current != 1 || page.Size != 10 {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestMetaFor(t *testing.T) {
	page := Page{Current: 2, Size: 10}
	meta := page.MetaFor(25)
	if meta.PageCount != 3 {
		t.Fatalf("expected 3 pages, got %d", meta.PageCount)
	}
	if meta.Count != 25 || meta.CurrentPage != 2 || meta.PageSize != 10 {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestInRange(t *testing.T) {
	page := Page{Current: 3, Size: 10}
	if page.InRange(20) {
		t.Fatal("page 3 of 20 rows should be out of range")
	}
	if !page.InRange(21) {
		t.Fatal("page 3 of 21 rows should exist")
	}
	if !(Page{Current: 1, Size: 10}).InRange(0) {
		t.Fatal("first page always exists")
	}
}
