package datatable

const (
	DefaultPageSize = 10
	DefaultSiblings = 1
)

// Link is one entry of the numbered pager. Ellipsis entries have Page 0.
type Link struct {
	Page     int  `json:"page"`
	Current  bool `json:"current,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// PageCount returns ceil(filtered/size); zero rows give zero pages
func PageCount(filtered, size int) int {
	if filtered <= 0 || size <= 0 {
		return 0
	}
	return (filtered + size - 1) / size
}

// ClampPage keeps page within [1, pages]
func ClampPage(page, pages int) int {
	if page < 1 || pages == 0 {
		return 1
	}
	if page > pages {
		return pages
	}
	return page
}

// PageLinks returns the pager for current of pages: the first and last page,
// siblings pages either side of current, and ellipsis markers for gaps. A gap
// of exactly one page shows that page instead of a marker.
func PageLinks(current, pages, siblings int) []Link {
	links := []Link{}
	if pages <= 0 {
		return links
	}
	current = ClampPage(current, pages)

	from := current - siblings
	if from < 1 {
		from = 1
	}
	to := current + siblings
	if to > pages {
		to = pages
	}

	visible := make([]int, 0, to-from+3)
	if from > 1 {
		visible = append(visible, 1)
	}
	for p := from; p <= to; p++ {
		visible = append(visible, p)
	}
	if to < pages {
		visible = append(visible, pages)
	}

	prev := 0
	for _, p := range visible {
		switch gap := p - prev; {
		case gap == 2:
			links = append(links, Link{Page: p - 1})
		case gap > 2:
			links = append(links, Link{Ellipsis: true})
		}
		links = append(links, Link{Page: p, Current: p == current})
		prev = p
	}
	return links
}
