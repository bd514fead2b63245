package repository

import "strconv"

// Page describes one page of a paginated listing.
type Page struct {
	Number   int  `json:"number"`
	PerPage  int  `json:"per_page"`
	Total    int  `json:"total"`
	NumPages int  `json:"num_pages"`
	HasNext  bool `json:"has_next"`
	HasPrev  bool `json:"has_previous"`
}

// Offset is the row offset of the first item of the page.
func (p Page) Offset() int { return (p.Number - 1) * p.PerPage }

// NewPage resolves a raw ?page= value the forgiving way: a missing or
// non-numeric value yields the first page, and a number outside
// [1, NumPages] yields the last page.  An empty listing still has one page.
func NewPage(raw string, total, perPage int) Page {
	if perPage < 1 {
		perPage = 10
	}
	if total < 0 {
		total = 0
	}
	numPages := (total + perPage - 1) / perPage
	if numPages < 1 {
		numPages = 1
	}
	n, err := strconv.Atoi(raw)
	switch {
	case err != nil:
		n = 1
	case n < 1 || n > numPages:
		n = numPages
	}
	return Page{
		Number:   n,
		PerPage:  perPage,
		Total:    total,
		NumPages: numPages,
		HasNext:  n < numPages,
		HasPrev:  n > 1,
	}
}
