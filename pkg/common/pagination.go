package common

import (
	"net/http"
	"strconv"

	pkgerrors "templatehub/pkg/errors"
)

// MaxPageSize caps page_size query parameters.
const MaxPageSize = 100

// PaginationParams are zero-based paging parameters.
type PaginationParams struct {
	Page     int64  `json:"page"`
	PageSize int64  `json:"page_size"`
	Sort     string `json:"sort,omitempty"`
	Order    string `json:"order,omitempty"`
}

// DefaultPaginationParams returns default pagination parameters
func DefaultPaginationParams() PaginationParams {
	return PaginationParams{PageSize: 10, Order: "desc"}
}

// ExtractPaginationParams reads page, page_size, sort and order from the
// query string. Malformed numbers are rejected; page_size is capped at
// MaxPageSize.
func ExtractPaginationParams(r *http.Request) (PaginationParams, error) {
	params := DefaultPaginationParams()
	q := r.URL.Query()

	if page := q.Get("page"); page != "" {
		p, err := strconv.ParseInt(page, 10, 64)
		if err != nil || p < 0 {
			return params, pkgerrors.NewInvalidArgumentError("page must be a non-negative integer")
		}
		params.Page = p
	}

	if size := q.Get("page_size"); size != "" {
		ps, err := strconv.ParseInt(size, 10, 64)
		if err != nil || ps <= 0 {
			return params, pkgerrors.NewInvalidArgumentError("page_size must be a positive integer")
		}
		if ps > MaxPageSize {
			ps = MaxPageSize
		}
		params.PageSize = ps
	}

	params.Sort = q.Get("sort")
	switch order := q.Get("order"); order {
	case "":
	case "asc", "desc":
		params.Order = order
	default:
		return params, pkgerrors.NewInvalidArgumentError("order must be asc or desc")
	}
	return params, nil
}

// Offset is the number of records skipped before this page.
func (p PaginationParams) Offset() int64 {
	return p.Page * p.PageSize
}

// TotalPages calculates the number of pages holding total records.
func TotalPages(total, pageSize int64) int64 {
	if pageSize <= 0 {
		return 0
	}
	pages := total / pageSize
	if total%pageSize > 0 {
		pages++
	}
	return pages
}

// PaginationInfo describes one page of a listing.
type PaginationInfo struct {
	Page       int64 `json:"page"`
	PageSize   int64 `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// PaginatedResult is a page of items with its position.
type PaginatedResult struct {
	Items      interface{}     `json:"items"`
	Pagination *PaginationInfo `json:"pagination"`
}

// NewPaginatedResult creates a new paginated result
func NewPaginatedResult(items interface{}, page, pageSize, total int64) *PaginatedResult {
	pages := TotalPages(total, pageSize)
	return &PaginatedResult{
		Items: items,
		Pagination: &PaginationInfo{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: pages,
			HasNext:    page+1 < pages,
			HasPrev:    page > 0,
		},
	}
}
