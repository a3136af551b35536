package service

import (
	"errors"
	"strconv"
	"strings"
)

// Listing sizes.
const (
	ListingPageSize  = 12
	HomeItemsPerList = 4
)

// Paginator describes one resolved page of a listing.
type Paginator struct {
	Number   int   `json:"number"`
	NumPages int   `json:"num_pages"`
	PerPage  int   `json:"per_page"`
	Total    int64 `json:"total"`
}

// ResolvePage turns a raw "page" query value into a valid page.
// Missing or non-integer input selects page 1. Integers below 1 or past
// the last page select the last page. There is always at least one page.
func ResolvePage(raw string, total int64, perPage int) Paginator {
	if perPage < 1 {
		perPage = 1
	}
	if total < 0 {
		total = 0
	}
	numPages := int((total + int64(perPage) - 1) / int64(perPage))
	if numPages < 1 {
		numPages = 1
	}

	p := Paginator{Number: 1, NumPages: numPages, PerPage: perPage, Total: total}

	n, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err == nil && n >= 1 && n <= numPages:
		p.Number = n
	case err == nil:
		p.Number = numPages
	case errors.Is(err, strconv.ErrRange):
		// Integer too large to represent is still out of range.
		p.Number = numPages
	}
	return p
}

// Offset is the index of the first item on the page.
func (p Paginator) Offset() int {
	return (p.Number - 1) * p.PerPage
}

func (p Paginator) HasPrev() bool { return p.Number > 1 }
func (p Paginator) HasNext() bool { return p.Number < p.NumPages }

// HasOtherPages reports whether pagination controls are needed.
func (p Paginator) HasOtherPages() bool { return p.NumPages > 1 }
