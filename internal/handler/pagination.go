package handler

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/GoArmGo/Foodgram/internal/domain"
)

// Pagination — настройки постраничной выдачи
type Pagination struct {
	PageSize    int
	MaxPageSize int
}

// page читает параметры ?page= и ?limit=. Некорректные значения заменяются значениями по умолчанию.
func (p Pagination) page(r *http.Request) domain.Page {
	q := r.URL.Query()

	number, err := strconv.Atoi(q.Get("page"))
	if err != nil || number < 1 {
		number = 1
	}

	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit < 1 {
		limit = p.PageSize
	}
	if p.MaxPageSize > 0 && limit > p.MaxPageSize {
		limit = p.MaxPageSize
	}
	if limit < 1 {
		limit = 1
	}
	// Дальше страница заведомо пустая, а смещение не должно переполниться
	if maxNumber := math.MaxInt/limit + 1; number > maxNumber {
		number = maxNumber
	}

	return domain.Page{Number: number, Limit: limit}
}

type paginatedResponse[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func newPaginatedResponse[T any](r *http.Request, p *domain.Paginated[T]) paginatedResponse[T] {
	resp := paginatedResponse[T]{Count: p.Count, Results: p.Results}
	if resp.Results == nil {
		resp.Results = []T{}
	}
	if p.HasNext() {
		next := pageURL(r, p.Page.Number+1)
		resp.Next = &next
	}
	if p.HasPrevious() {
		prev := pageURL(r, p.Page.Number-1)
		resp.Previous = &prev
	}
	return resp
}

// pageURL строит абсолютную ссылку на соседнюю страницу с теми же параметрами запроса.
// Для первой страницы параметр page опускается.
func pageURL(r *http.Request, number int) string {
	q := r.URL.Query()
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}

	u := url.URL{
		Scheme:   requestScheme(r),
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func requestScheme(r *http.Request) string {
	switch proto := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))); proto {
	case "http", "https":
		return proto
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
