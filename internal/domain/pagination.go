package domain

import "math"

// Page — параметры постраничной выдачи. Number начинается с 1.
type Page struct {
	Number int
	Limit  int
}

// Offset возвращает смещение для SQL-запроса. При переполнении насыщается до math.MaxInt.
func (p Page) Offset() int {
	if p.Number <= 1 || p.Limit <= 0 {
		return 0
	}
	if p.Number-1 > math.MaxInt/p.Limit {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Limit
}

// Paginated — страница результатов и общее количество записей.
type Paginated[T any] struct {
	Count   int
	Page    Page
	Results []T
}

// HasNext сообщает, есть ли следующая страница.
func (p Paginated[T]) HasNext() bool {
	return p.Page.Limit > 0 && p.Page.Offset()+len(p.Results) < p.Count
}

// HasPrevious сообщает, есть ли предыдущая страница.
func (p Paginated[T]) HasPrevious() bool {
	return p.Page.Number > 1
}
