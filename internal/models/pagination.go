package models

// MaxPage bounds page numbers so row offsets stay well inside int range.
const MaxPage = 1_000_000

type Pagination struct {
	Page  int   `json:"page" example:"1"`
	Limit int   `json:"limit" example:"20"`
	Total int64 `json:"total" example:"42"`
	Pages int   `json:"pages" example:"3"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// Offset is the row offset of the page.
func (p Pagination) Offset() int {
	page := min(p.Page, MaxPage)
	if page < 1 {
		return 0
	}
	return (page - 1) * p.Limit
}

type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}
