package ports

import (
	"context"

	"github.com/GoArmGo/Foodgram/internal/domain"
)

// UserStorage определяет методы для взаимодействия с хранилищем пользователей
type UserStorage interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUsersByIDs(ctx context.Context, ids []int64) (map[int64]domain.User, error)
	ListUsers(ctx context.Context, page domain.Page) ([]domain.User, int, error)
	// UserTaken сообщает, заняты ли email и username. Только для дружелюбных сообщений,
	// уникальность гарантируют ограничения бд.
	UserTaken(ctx context.Context, email, username string) (emailTaken, usernameTaken bool, err error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	// SetAvatar заменяет ключ аватара и возвращает предыдущий.
	SetAvatar(ctx context.Context, id int64, key *string) (previous *string, err error)
}

// SubscriptionStorage определяет методы для работы с подписками на авторов
type SubscriptionStorage interface {
	AddSubscription(ctx context.Context, subscriberID, authorID int64) error
	RemoveSubscription(ctx context.Context, subscriberID, authorID int64) error
	ListSubscriptions(ctx context.Context, subscriberID int64, page domain.Page) ([]domain.User, int, error)
	SubscribedTo(ctx context.Context, subscriberID int64, authorIDs []int64) (map[int64]bool, error)
}

// IngredientStorage определяет методы справочника ингредиентов
type IngredientStorage interface {
	SearchIngredients(ctx context.Context, namePrefix string) ([]domain.Ingredient, error)
	GetIngredient(ctx context.Context, id int64) (*domain.Ingredient, error)
	MissingIngredientIDs(ctx context.Context, ids []int64) ([]int64, error)
	ImportIngredients(ctx context.Context, items []domain.Ingredient) (int64, error)
}

// RecipeStorage определяет методы хранилища рецептов.
// Запись рецепта и его строк выполняется атомарно.
type RecipeStorage interface {
	// CreateRecipeWithIngredients сохраняет рецепт и все его строки в одной транзакции.
	CreateRecipeWithIngredients(ctx context.Context, recipe *domain.Recipe) error
	// ReplaceRecipeIngredients обновляет поля рецепта и полностью заменяет набор строк в одной транзакции.
	ReplaceRecipeIngredients(ctx context.Context, recipe *domain.Recipe) error
	DeleteRecipe(ctx context.Context, id int64) error
	GetRecipe(ctx context.Context, id int64) (*domain.Recipe, error)
	ListRecipes(ctx context.Context, filter domain.RecipeFilter, page domain.Page) ([]domain.Recipe, int, error)
	// ListAuthorsRecipes возвращает рецепты нескольких авторов без строк, новые первыми,
	// не больше limit на автора; limit <= 0 — без ограничения.
	ListAuthorsRecipes(ctx context.Context, authorIDs []int64, limit int) (map[int64][]domain.Recipe, error)
	CountAuthorsRecipes(ctx context.Context, authorIDs []int64) (map[int64]int, error)
}

// InteractionStorage определяет методы для избранного и корзины покупок
type InteractionStorage interface {
	AddRelation(ctx context.Context, rel domain.Relation, userID, recipeID int64) error
	RemoveRelation(ctx context.Context, rel domain.Relation, userID, recipeID int64) error
	HasRelation(ctx context.Context, rel domain.Relation, userID, recipeID int64) (bool, error)
	RelationFlags(ctx context.Context, userID int64, recipeIDs []int64) (map[int64]domain.RecipeFlags, error)
	ListRelatedRecipes(ctx context.Context, rel domain.Relation, userID int64, page domain.Page) ([]domain.Recipe, int, error)
	// ShoppingList суммирует количества ингредиентов всех рецептов корзины,
	// группируя по (name, measurement_unit) и сортируя по name.
	ShoppingList(ctx context.Context, userID int64) ([]domain.ShoppingListItem, error)
}
