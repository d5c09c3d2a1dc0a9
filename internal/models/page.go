package models

import "strings"

const (
	defaultPageLimit = 10
	maxPageLimit     = 100
)

// PageRequest carries pagination and sorting parameters. Page is 1-based.
// Sort names a column alias which the repository maps against a whitelist;
// unknown aliases fall back to the endpoint default.
type PageRequest struct {
	Page      int
	Limit     int
	Sort      string
	Direction string
}

// Normalized returns a copy with page, limit and direction clamped to
// valid values, applying defaultSort and defaultDirection when unset.
func (p PageRequest) Normalized(defaultSort, defaultDirection string) PageRequest {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Sort == "" {
		p.Sort = defaultSort
	}
	switch strings.ToLower(p.Direction) {
	case "asc":
		p.Direction = "asc"
	case "desc":
		p.Direction = "desc"
	default:
		p.Direction = strings.ToLower(defaultDirection)
	}
	return p
}

// Offset returns the row offset for the page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one page of results together with the total row count.
type Page struct {
	Items any   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}
