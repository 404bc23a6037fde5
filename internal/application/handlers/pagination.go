package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Simpactsoft/now-core/internal/domain/entities"
)

// Pagination turns caller-supplied page parameters into a PageRequest.
type Pagination struct {
	DefaultPageSize int
	MaxPageSize     int
}

// Request validates numeric page parameters. A zero pageSize selects the
// default size.
func (p Pagination) Request(page, pageSize int) (entities.PageRequest, error) {
	if pageSize == 0 {
		pageSize = p.DefaultPageSize
	}
	return entities.NewPageRequest(page, pageSize, p.MaxPageSize)
}

// Parse validates textual page parameters, as found in a query string.
// Empty values select page 1 and the default size.
func (p Pagination) Parse(page, pageSize string) (entities.PageRequest, error) {
	pageNum, err := parsePageParam("page", page, 1)
	if err != nil {
		return entities.PageRequest{}, err
	}
	size, err := parsePageParam("pageSize", pageSize, p.DefaultPageSize)
	if err != nil {
		return entities.PageRequest{}, err
	}
	return entities.NewPageRequest(pageNum, size, p.MaxPageSize)
}

func parsePageParam(name, value string, def int) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return def, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q: %w", name, value, entities.ErrInvalidPagination)
	}
	return n, nil
}
