// Package datatable implements the search, sort and pagination shared by every
// list screen. It works on any row type given a field accessor.
package datatable

import (
	"sort"
	"strconv"
	"strings"
)

// Accessor returns the display value of a named field of a row
type Accessor[T any] func(row T, field string) string

// Query describes one list request
type Query struct {
	Search   string   `json:"search"`
	Fields   []string `json:"fields"` // fields matched by Search
	SortBy   string   `json:"sort_by"`
	SortDesc bool     `json:"sort_desc"`
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
}

// Page is the result of applying a Query
type Page[T any] struct {
	Rows     []T    `json:"rows"`
	Total    int    `json:"total"`
	Filtered int    `json:"filtered"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Pages    int    `json:"pages"`
	Links    []Link `json:"links"`
}

// Apply filters, sorts and slices rows. The input slice is not modified.
func Apply[T any](rows []T, q Query, field Accessor[T]) Page[T] {
	filtered := Filter(rows, q.Search, q.Fields, field)
	if q.SortBy != "" {
		Sort(filtered, q.SortBy, q.SortDesc, field)
	}

	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := PageCount(len(filtered), size)
	page := ClampPage(q.Page, pages)

	start := (page - 1) * size
	end := start + size
	if start > len(filtered) {
		start = len(filtered)
	}
	if end > len(filtered) {
		end = len(filtered)
	}

	return Page[T]{
		Rows:     filtered[start:end],
		Total:    len(rows),
		Filtered: len(filtered),
		Page:     page,
		PageSize: size,
		Pages:    pages,
		Links:    PageLinks(page, pages, DefaultSiblings),
	}
}

// Filter returns the rows where any of fields contains search, ignoring case.
// An empty search keeps every row.
func Filter[T any](rows []T, search string, fields []string, field Accessor[T]) []T {
	needle := strings.ToLower(strings.TrimSpace(search))
	out := make([]T, 0, len(rows))
	if needle == "" {
		return append(out, rows...)
	}

	for _, row := range rows {
		for _, f := range fields {
			if strings.Contains(strings.ToLower(field(row, f)), needle) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

// Sort orders rows in place by one field. The sort is stable; numbers compare
// numerically and rank before text, text compares case-insensitively.
func Sort[T any](rows []T, by string, desc bool, field Accessor[T]) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := field(rows[i], by), field(rows[j], by)
		if desc {
			return compare(b, a) < 0
		}
		return compare(a, b) < 0
	})
}

func compare(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	switch {
	case errA == nil && errB == nil:
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
