package pagination

import "testing"

func TestPageRequestDefaults(t *testing.T) {
	req := PageRequest{}
	req.Defaults()
	if req.Page != 1 || req.PageSize != DefaultPageSize {
		t.Fatalf("expected page 1 size %d, got page %d size %d", DefaultPageSize, req.Page, req.PageSize)
	}

	req = PageRequest{Page: 3, PageSize: 10}
	req.Defaults()
	if req.Offset() != 20 {
		t.Fatalf("expected offset 20, got %d", req.Offset())
	}
}

func TestNewPageResponse(t *testing.T) {
	resp := NewPageResponse[string](nil, 1, 20, 0)
	if resp.Data == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if resp.TotalPages != 0 {
		t.Fatalf("expected 0 pages, got %d", resp.TotalPages)
	}

	resp = NewPageResponse([]string{"a"}, 1, 20, 41)
	if resp.TotalPages != 3 {
		t.Fatalf("expected 3 pages for 41 items, got %d", resp.TotalPages)
	}
}
