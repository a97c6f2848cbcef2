package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(query string) Params {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/"+query, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor("")
	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		query  string
		limit  int
		offset int
	}{
		{"?limit=5&offset=10", 5, 10},
		{"?limit=500", MaxLimit, 0},
		{"?limit=-3&offset=-1", DefaultLimit, 0},
		{"?limit=abc&offset=xyz", DefaultLimit, 0},
	}
	for _, tt := range tests {
		p := paramsFor(tt.query)
		if p.Limit != tt.limit || p.Offset != tt.offset {
			t.Errorf("%s: expected limit=%d offset=%d, got limit=%d offset=%d",
				tt.query, tt.limit, tt.offset, p.Limit, p.Offset)
		}
	}
}

func TestNewResponse(t *testing.T) {
	p := Params{Limit: 10, Offset: 0}
	resp := NewResponse([]int{1, 2}, 25, p)
	if !resp.HasMore {
		t.Error("expected has_more when total exceeds page")
	}
	if resp.Limit != 10 || resp.Total != 25 {
		t.Errorf("unexpected response %+v", resp)
	}

	last := NewResponse(nil, 25, Params{Limit: 10, Offset: 20})
	if last.HasMore {
		t.Error("expected no more results on last page")
	}
	if p.NextOffset() != 10 {
		t.Errorf("expected next offset 10, got %d", p.NextOffset())
	}
}
