package domain

const MaxPageLimit = 200

// MaxPage 保证 (page-1)*limit 在 32 位 int 下也不溢出
const MaxPage = (1<<31 - 1) / MaxPageLimit

type Page struct {
	Page  int
	Limit int
}

// NewPage 非法值回落到默认：page<1 -> 1，limit<1 -> def；page 上限 MaxPage，limit 上限 MaxPageLimit
func NewPage(page, limit, def int) Page {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = def
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Page: page, Limit: limit}
}

func (p Page) Offset() int { return (p.Page - 1) * p.Limit }

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

func (p Page) Paginate(total int64) Pagination {
	pages := 0
	if p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Pagination{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: pages}
}

// List 分页列表的统一外壳
type List[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

func NewList[T any](items []T, p Page, total int64) List[T] {
	if items == nil {
		items = []T{}
	}
	return List[T]{Items: items, Pagination: p.Paginate(total)}
}
