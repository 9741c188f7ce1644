package dto

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

type PaginationQuery struct {
	Page  int `form:"page" binding:"omitempty,min=1"`
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Normalize fills defaults for omitted values.
func (q PaginationQuery) Normalize() PaginationQuery {
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

func (q PaginationQuery) Offset() int {
	return (q.Page - 1) * q.Limit
}

type SearchFilter struct {
	PaginationQuery
	Search string `form:"search"`
}

type PaginationMeta struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalItems  int64 `json:"total_items"`
	Limit       int   `json:"limit"`
}

func NewPaginationMeta(q PaginationQuery, total int64) PaginationMeta {
	totalPages := 0
	if q.Limit > 0 {
		totalPages = int((total + int64(q.Limit) - 1) / int64(q.Limit))
	}
	return PaginationMeta{
		CurrentPage: q.Page,
		TotalPages:  totalPages,
		TotalItems:  total,
		Limit:       q.Limit,
	}
}

type Paginated[T any] struct {
	Data []T            `json:"data"`
	Meta PaginationMeta `json:"meta"`
}

// NewPaginated never serializes data as null.
func NewPaginated[T any](data []T, q PaginationQuery, total int64) *Paginated[T] {
	if data == nil {
		data = []T{}
	}
	return &Paginated[T]{Data: data, Meta: NewPaginationMeta(q, total)}
}
