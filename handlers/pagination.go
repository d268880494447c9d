package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultLimit = 100
	MaxLimit     = 500
)

type PaginationParams struct {
	Limit  int
	Offset int
}

// ParsePagination reads limit/offset query params. Limit defaults to 100
// and must be >= 1; offset defaults to 0 and must be >= 0. An offset past
// the end of the collection is not an error.
func ParsePagination(c *gin.Context) (PaginationParams, error) {
	p := PaginationParams{Limit: DefaultLimit, Offset: 0}

	if limitStr := c.Query("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l < 1 {
			return p, fmt.Errorf("limit must be a positive integer, got %q", limitStr)
		}
		p.Limit = l
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		o, err := strconv.Atoi(offsetStr)
		if err != nil || o < 0 {
			return p, fmt.Errorf("offset must be a non-negative integer, got %q", offsetStr)
		}
		p.Offset = o
	}

	return p, nil
}
