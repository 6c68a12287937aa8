package domain

import "time"

// Минимальные значения, проверяемые и приложением, и CHECK-ограничениями в бд.
const (
	MinCookingTime      = 1
	MinIngredientAmount = 1
)

// Recipe представляет рецепт пользователя,
// соответствует таблице recipes в бд
type Recipe struct {
	ID          int64              `db:"id"`
	AuthorID    int64              `db:"author_id"`
	Name        string             `db:"name"`
	Image       string             `db:"image"`
	Text        string             `db:"text"`
	CookingTime int                `db:"cooking_time"`
	CreatedAt   time.Time          `db:"created_at"`
	UpdatedAt   time.Time          `db:"updated_at"`
	Ingredients []RecipeIngredient `db:"-"`
}

// RecipeIngredient — строка рецепта: ингредиент и его количество.
// Name и MeasurementUnit заполняются при чтении из справочника.
type RecipeIngredient struct {
	RecipeID        int64  `db:"recipe_id"`
	IngredientID    int64  `db:"ingredient_id"`
	Amount          int    `db:"amount"`
	Name            string `db:"name"`
	MeasurementUnit string `db:"measurement_unit"`
}

// Relation — связь пользователя с рецептом, которая включается и выключается явными действиями.
type Relation int

const (
	RelationFavorite Relation = iota + 1
	RelationShoppingCart
)

func (r Relation) String() string {
	switch r {
	case RelationFavorite:
		return "favorite"
	case RelationShoppingCart:
		return "shopping_cart"
	default:
		return "unknown"
	}
}

// RecipeFlags — признаки рецепта относительно текущего пользователя. Никогда не хранятся.
type RecipeFlags struct {
	IsFavorited      bool
	IsInShoppingCart bool
}

// RecipeFilter описывает фильтры списка рецептов.
// Нулевой ViewerID означает анонимного пользователя.
type RecipeFilter struct {
	AuthorID      *int64
	ViewerID      int64
	FavoritedOnly bool
	InCartOnly    bool
}
