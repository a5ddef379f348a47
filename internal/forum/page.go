package forum

// Page is one page of a longer result list.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	Total      int  `json:"total"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// clampPage returns a valid 1-based page number for total items. Numbers
// below 1 select the first page and numbers past the end select the last.
func clampPage(page, size, total int) (int, int) {
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	return page, pages
}

func newPage[T any](items []T, page, size, total int) Page[T] {
	page, pages := clampPage(page, size, total)
	if items == nil {
		items = []T{}
	}
	return Page[T]{
		Items:      items,
		Page:       page,
		PageSize:   size,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

// paginate slices an in-memory result list.
func paginate[T any](all []T, page, size int) Page[T] {
	page, _ = clampPage(page, size, len(all))
	start := (page - 1) * size
	end := min(start+size, len(all))
	return newPage(all[start:end], page, size, len(all))
}
