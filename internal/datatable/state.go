package datatable

import (
	"net/url"
	"strconv"
	"strings"
)

// Limits bounds page sizes accepted from clients
type Limits struct {
	DefaultPageSize int
	MaxPageSize     int
}

// State is the user's current view of a list. Changing the search text or
// page size sends the user back to page 1.
type State struct {
	Search   string `json:"search"`
	SortBy   string `json:"sort_by"`
	SortDesc bool   `json:"sort_desc"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
}

// NewState returns a state on page 1 with the given page size
func NewState(pageSize int) *State {
	return &State{Page: 1, PageSize: pageSize}
}

func (s *State) SetSearch(search string) {
	if search != s.Search {
		s.Search = search
		s.Page = 1
	}
}

func (s *State) SetPageSize(size int) {
	if size != s.PageSize {
		s.PageSize = size
		s.Page = 1
	}
}

func (s *State) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.Page = page
}

// SetSort sorts by field; choosing the current field again flips direction
func (s *State) SetSort(field string) {
	if field == s.SortBy {
		s.SortDesc = !s.SortDesc
		return
	}
	s.SortBy = field
	s.SortDesc = false
}

// Query builds the query for this state searching the given fields
func (s State) Query(fields []string) Query {
	return Query{
		Search:   s.Search,
		Fields:   fields,
		SortBy:   s.SortBy,
		SortDesc: s.SortDesc,
		Page:     s.Page,
		PageSize: s.PageSize,
	}
}

// FromValues reads a state from query parameters q, sort, order, page and size.
// When the client echoes its previous search and size as prev_q and prev_size,
// a change in either sends it back to page 1. Unknown sort fields are dropped
// when allowedSort is non-empty.
func FromValues(values url.Values, limits Limits, allowedSort []string) State {
	st := NewState(limits.DefaultPageSize)
	st.SetPage(atoiDefault(values.Get("page"), 1))

	search := strings.TrimSpace(values.Get("q"))
	if values.Has("prev_q") {
		st.Search = strings.TrimSpace(values.Get("prev_q"))
		st.SetSearch(search)
	} else {
		st.Search = search
	}

	size := limits.clamp(atoiDefault(values.Get("size"), limits.DefaultPageSize))
	if values.Has("prev_size") {
		st.PageSize = limits.clamp(atoiDefault(values.Get("prev_size"), limits.DefaultPageSize))
		st.SetPageSize(size)
	} else {
		st.PageSize = size
	}

	sortBy := values.Get("sort")
	if sortBy != "" && (len(allowedSort) == 0 || contains(allowedSort, sortBy)) {
		st.SortBy = sortBy
		st.SortDesc = strings.EqualFold(values.Get("order"), "desc")
	}
	return *st
}

func (l Limits) clamp(size int) int {
	if size <= 0 {
		size = l.DefaultPageSize
	}
	if l.MaxPageSize > 0 && size > l.MaxPageSize {
		size = l.MaxPageSize
	}
	return size
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
