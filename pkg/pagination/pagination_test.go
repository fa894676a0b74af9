package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, query string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/?"+query, nil)
	return FromContext(e.NewContext(req, httptest.NewRecorder()))
}

func TestFromContext(t *testing.T) {
	p := paramsFor(t, "")
	if p.Limit != DefaultLimit || p.Offset != 0 {
		t.Errorf("defaults = %+v", p)
	}

	p = paramsFor(t, "limit=5&offset=15")
	if p.Limit != 5 || p.Offset != 15 {
		t.Errorf("got %+v, want limit 5 offset 15", p)
	}

	p = paramsFor(t, "limit=5000")
	if p.Limit != MaxLimit {
		t.Errorf("limit = %d, want clamped to %d", p.Limit, MaxLimit)
	}
}

func TestNewResponse(t *testing.T) {
	r := NewResponse([]int{1, 2, 3}, 10, 3, 0)
	if !r.HasMore {
		t.Error("expected HasMore with total 10 and page of 3")
	}
	r = NewResponse([]int{1}, 1, 20, 0)
	if r.HasMore {
		t.Error("unexpected HasMore on final page")
	}
}

func TestSlice(t *testing.T) {
	items := []string{"a", "b", "c", "d"}
	got := Slice(items, Params{Limit: 2, Offset: 1})
	if len(got) != 2 || got[0] != "b" {
		t.Errorf("Slice = %v", got)
	}
	if got := Slice(items, Params{Limit: 2, Offset: 10}); got != nil {
		t.Errorf("out-of-range slice = %v, want nil", got)
	}
}
