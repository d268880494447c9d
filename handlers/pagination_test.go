package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func paginationContext(query string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/routes/"+query, nil)
	return c
}

func TestParsePaginationDefaults(t *testing.T) {
	p, err := ParsePagination(paginationContext(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Limit != DefaultLimit {
		t.Errorf("Limit = %d, want %d", p.Limit, DefaultLimit)
	}
	if p.Offset != 0 {
		t.Errorf("Offset = %d, want 0", p.Offset)
	}
}

func TestParsePaginationExplicit(t *testing.T) {
	p, err := ParsePagination(paginationContext("?limit=2&offset=4"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Limit != 2 {
		t.Errorf("Limit = %d, want 2", p.Limit)
	}
	if p.Offset != 4 {
		t.Errorf("Offset = %d, want 4", p.Offset)
	}
}

func TestParsePaginationCapsLimit(t *testing.T) {
	p, err := ParsePagination(paginationContext("?limit=99999"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Limit != MaxLimit {
		t.Errorf("Limit = %d, want %d", p.Limit, MaxLimit)
	}
}

func TestParsePaginationInvalid(t *testing.T) {
	cases := []string{
		"?limit=0",
		"?limit=-1",
		"?limit=abc",
		"?offset=-5",
		"?offset=xyz",
	}
	for _, query := range cases {
		t.Run(query, func(t *testing.T) {
			if _, err := ParsePagination(paginationContext(query)); err == nil {
				t.Errorf("expected error for %q", query)
			}
		})
	}
}
