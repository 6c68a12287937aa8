package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageOffset(t *testing.T) {
	cases := []struct {
		page Page
		want int
	}{
		{Page{Number: 1, Limit: 6}, 0},
		{Page{Number: 0, Limit: 6}, 0},
		{Page{Number: 3, Limit: 6}, 12},
		{Page{Number: 5, Limit: 0}, 0},
		{Page{Number: math.MaxInt, Limit: 6}, math.MaxInt},
		{Page{Number: math.MaxInt/3 + 2, Limit: 3}, math.MaxInt},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.page.Offset(), "%+v", tc.page)
	}
}

func TestPaginatedFarPage(t *testing.T) {
	p := Paginated[int]{Count: 4, Page: Page{Number: math.MaxInt, Limit: 2}}

	assert.False(t, p.HasNext())
	assert.True(t, p.HasPrevious())
}
