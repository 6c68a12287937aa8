package domain

import (
	"fmt"
	"strings"
)

// ShoppingListItem — суммарное количество ингредиента по всем рецептам корзины.
type ShoppingListItem struct {
	Name            string `db:"name"`
	MeasurementUnit string `db:"measurement_unit"`
	TotalAmount     int    `db:"total_amount"`
}

// RenderShoppingList формирует текстовый список покупок, по строке на ингредиент.
// Элементы должны быть уже сгруппированы и отсортированы хранилищем.
func RenderShoppingList(items []ShoppingListItem) string {
	var b strings.Builder
	for _, item := range items {
		fmt.Fprintf(&b, "%s (%s) — %d\n", item.Name, item.MeasurementUnit, item.TotalAmount)
	}
	return b.String()
}
