package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/ocms-community/internal/service"
)

// Pagination holds pagination data for listing templates.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int64
	PerPage     int
	HasPrev     bool
	HasNext     bool
	PrevPage    int
	NextPage    int
	Pages       []PaginationPage
	BaseURL     string
	QueryString string
}

// PaginationPage represents a single page link.
type PaginationPage struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// CalculateTotalPages returns the page count for totalItems, never less than 1.
func CalculateTotalPages(totalItems, perPage int) int {
	if perPage < 1 {
		return 1
	}
	pages := (totalItems + perPage - 1) / perPage
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage keeps page within [1, totalPages].
func ClampPage(page, totalPages int) int {
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// ParsePageParam reads the "page" query parameter of admin lists. Missing,
// invalid or non-positive values give 1.
func ParsePageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// ParseIDParam reads the chi "id" URL parameter.
func ParseIDParam(r *http.Request) (int64, error) {
	return ParseURLParamInt64(r, "id")
}

// ParseURLParamInt64 reads a chi URL parameter as int64.
func ParseURLParamInt64(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return 0, errors.New("missing " + name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}

// BuildPagination creates pagination data for templates.
// baseURL is the path without query string (e.g., "/admin/events")
// queryParams are the current query parameters to preserve (e.g., filters)
func BuildPagination(currentPage, totalItems, perPage int, baseURL string, queryParams url.Values) Pagination {
	totalPages := CalculateTotalPages(totalItems, perPage)

	pagination := Pagination{
		CurrentPage: currentPage,
		TotalPages:  totalPages,
		TotalItems:  int64(totalItems),
		PerPage:     perPage,
		HasPrev:     currentPage > 1,
		HasNext:     currentPage < totalPages,
		PrevPage:    currentPage - 1,
		NextPage:    currentPage + 1,
		BaseURL:     baseURL,
	}

	// Build query string without page parameter
	if queryParams != nil {
		params := make(url.Values)
		for k, v := range queryParams {
			if k != "page" && len(v) > 0 && v[0] != "" {
				params[k] = v
			}
		}
		if len(params) > 0 {
			pagination.QueryString = params.Encode()
		}
	}

	// Show at most 5 pages around the current one, with ellipsis
	start := currentPage - 2
	end := currentPage + 2
	if start < 1 {
		start = 1
		end = 5
	}
	if end > totalPages {
		end = totalPages
		start = max(end-4, 1)
	}

	if start > 1 {
		pagination.Pages = append(pagination.Pages, PaginationPage{Number: 1, URL: pagination.PageURL(1)})
		if start > 2 {
			pagination.Pages = append(pagination.Pages, PaginationPage{IsEllipsis: true})
		}
	}

	for i := start; i <= end; i++ {
		pagination.Pages = append(pagination.Pages, PaginationPage{
			Number:    i,
			URL:       pagination.PageURL(i),
			IsCurrent: i == currentPage,
		})
	}

	if end < totalPages {
		if end < totalPages-1 {
			pagination.Pages = append(pagination.Pages, PaginationPage{IsEllipsis: true})
		}
		pagination.Pages = append(pagination.Pages, PaginationPage{Number: totalPages, URL: pagination.PageURL(totalPages)})
	}

	return pagination
}

// ListingPagination builds template pagination for a resolved site listing.
func ListingPagination(p service.Paginator, baseURL string) Pagination {
	return BuildPagination(p.Number, int(p.Total), p.PerPage, baseURL, nil)
}

// PageURL returns the URL for a specific page number.
func (p Pagination) PageURL(page int) string {
	if p.QueryString != "" {
		return fmt.Sprintf("%s?%s&page=%d", p.BaseURL, p.QueryString, page)
	}
	return fmt.Sprintf("%s?page=%d", p.BaseURL, page)
}

// PrevURL returns the URL for the previous page.
func (p Pagination) PrevURL() string {
	return p.PageURL(p.PrevPage)
}

// NextURL returns the URL for the next page.
func (p Pagination) NextURL() string {
	return p.PageURL(p.NextPage)
}

// ShouldShow returns true if pagination should be displayed (more than 1 page).
func (p Pagination) ShouldShow() bool {
	return p.TotalPages > 1
}

// PageRange returns a description of the current page range.
func (p Pagination) PageRange() string {
	if p.TotalItems == 0 {
		return "0"
	}
	start := (p.CurrentPage-1)*p.PerPage + 1
	end := min(p.CurrentPage*p.PerPage, int(p.TotalItems))
	return strings.TrimSpace(fmt.Sprintf("%d-%d", start, end))
}

// listAdminPage loads the requested page of an admin list. Pages past the
// end are clamped to the last page.
func listAdminPage[T any](r *http.Request, list func(limit, offset int) ([]T, int64, error)) ([]T, Pagination, error) {
	page := ParsePageParam(r)
	items, total, err := list(adminPerPage, (page-1)*adminPerPage)
	if err != nil {
		return nil, Pagination{}, err
	}
	if clamped := ClampPage(page, CalculateTotalPages(int(total), adminPerPage)); clamped != page {
		page = clamped
		if items, total, err = list(adminPerPage, (page-1)*adminPerPage); err != nil {
			return nil, Pagination{}, err
		}
	}
	return items, BuildPagination(page, int(total), adminPerPage, r.URL.Path, r.URL.Query()), nil
}
