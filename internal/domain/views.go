package domain

// Представления для чтения. Формат записи (входные DTO) намеренно отличается от них.

// UserView — публичный профиль пользователя.
type UserView struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	Username     string  `json:"username"`
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	IsSubscribed bool    `json:"is_subscribed"`
	Avatar       *string `json:"avatar"`
}

// CreatedUserView возвращается при регистрации.
type CreatedUserView struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserWithRecipesView — автор из списка подписок с превью рецептов.
type UserWithRecipesView struct {
	UserView
	Recipes      []RecipeMinifiedView `json:"recipes"`
	RecipesCount int                  `json:"recipes_count"`
}

// RecipeIngredientView — строка рецепта в ответе.
type RecipeIngredientView struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

// RecipeView — полное представление рецепта.
type RecipeView struct {
	ID               int64                  `json:"id"`
	Author           UserView               `json:"author"`
	Ingredients      []RecipeIngredientView `json:"ingredients"`
	IsFavorited      bool                   `json:"is_favorited"`
	IsInShoppingCart bool                   `json:"is_in_shopping_cart"`
	Name             string                 `json:"name"`
	Image            string                 `json:"image"`
	Text             string                 `json:"text"`
	CookingTime      int                    `json:"cooking_time"`
}

// RecipeMinifiedView — краткое представление (избранное, корзина, подписки).
type RecipeMinifiedView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

// AvatarView — ответ на загрузку аватара.
type AvatarView struct {
	Avatar *string `json:"avatar"`
}

// ShortLinkView — короткая ссылка на рецепт.
type ShortLinkView struct {
	ShortLink string `json:"short-link"`
}
