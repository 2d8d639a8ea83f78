package shared

import "strconv"

// Page is one fixed-size window over an ordered list.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Number     int  `json:"number"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// ParsePageNumber parses a requested page number, treating anything that is
// not a positive integer as page 1.
func ParsePageNumber(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// Paginate slices list into pages of perPage items and returns the requested
// page. Out-of-range page numbers clamp to the nearest valid page; an empty
// list yields a single empty page.
func Paginate[T any](list []T, requestedPage, perPage int) Page[T] {
	if perPage < 1 {
		perPage = 1
	}

	totalPages := (len(list) + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}

	page := requestedPage
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * perPage
	end := start + perPage
	if start > len(list) {
		start = len(list)
	}
	if end > len(list) {
		end = len(list)
	}

	return Page[T]{
		Items:      list[start:end],
		Number:     page,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}
