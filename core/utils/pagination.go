package utils

// Pagination defaults and caps.
const (
	DefaultPerPage = 20
	MaxPerPage     = 100
)

// PageMeta describes one page of a larger result set.
type PageMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int64 `json:"pages"`
}

// NormalizePage clamps user supplied pagination parameters to sane values.
func NormalizePage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// NewPageMeta builds page metadata for a total row count.
func NewPageMeta(page, perPage int, total int64) PageMeta {
	pages := (total + int64(perPage) - 1) / int64(perPage)
	return PageMeta{
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
	}
}

// PageOffset returns the SQL offset for a normalized page.
func PageOffset(page, perPage int) int {
	return (page - 1) * perPage
}
