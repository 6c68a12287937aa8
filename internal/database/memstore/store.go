// Package memstore хранит данные в памяти процесса.
// Реализует все порты хранилища с теми же гарантиями уникальности, что и PostgreSQL,
// и используется в тестах use case'ов и обработчиков.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GoArmGo/Foodgram/internal/core/ports"
	"github.com/GoArmGo/Foodgram/internal/domain"
)

var (
	_ ports.UserStorage         = (*Store)(nil)
	_ ports.SubscriptionStorage = (*Store)(nil)
	_ ports.IngredientStorage   = (*Store)(nil)
	_ ports.RecipeStorage       = (*Store)(nil)
	_ ports.InteractionStorage  = (*Store)(nil)
)

type pair struct{ a, b int64 }

type Store struct {
	mu sync.RWMutex

	seq int64
	now func() time.Time

	users         map[int64]domain.User
	subscriptions map[pair]time.Time
	ingredients   map[int64]domain.Ingredient
	recipes       map[int64]domain.Recipe
	relations     map[domain.Relation]map[pair]time.Time
}

func New() *Store {
	return &Store{
		now:           time.Now,
		users:         make(map[int64]domain.User),
		subscriptions: make(map[pair]time.Time),
		ingredients:   make(map[int64]domain.Ingredient),
		recipes:       make(map[int64]domain.Recipe),
		relations: map[domain.Relation]map[pair]time.Time{
			domain.RelationFavorite:     {},
			domain.RelationShoppingCart: {},
		},
	}
}

// next выдает монотонные ID и метки времени, чтобы порядок "новые первыми" был детерминированным.
func (s *Store) next() (int64, time.Time) {
	s.seq++
	return s.seq, s.now().Add(time.Duration(s.seq) * time.Millisecond)
}

func paginate[T any](items []T, page domain.Page) []T {
	off := page.Offset()
	if off >= len(items) {
		return []T{}
	}
	end := len(items)
	if page.Limit > 0 && off+page.Limit < end {
		end = off + page.Limit
	}
	return items[off:end]
}

// --- users ---

func (s *Store) CreateUser(_ context.Context, user *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email {
			return domain.NewValidationError("email", "Пользователь с таким email уже существует.")
		}
		if u.Username == user.Username {
			return domain.NewValidationError("username", "Пользователь с таким именем уже существует.")
		}
	}

	user.ID, user.CreatedAt = s.next()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = *user
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("пользователь %d: %w", id, domain.ErrNotFound)
	}
	return &u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("пользователь с email %s: %w", email, domain.ErrNotFound)
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []int64) (map[int64]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			result[id] = u
		}
	}
	return result, nil
}

func (s *Store) ListUsers(_ context.Context, page domain.Page) ([]domain.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return paginate(users, page), len(users), nil
}

func (s *Store) UserTaken(_ context.Context, email, username string) (bool, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var emailTaken, usernameTaken bool
	for _, u := range s.users {
		emailTaken = emailTaken || u.Email == email
		usernameTaken = usernameTaken || u.Username == username
	}
	return emailTaken, usernameTaken, nil
}

func (s *Store) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("пользователь %d: %w", id, domain.ErrNotFound)
	}
	u.PasswordHash = passwordHash
	s.users[id] = u
	return nil
}

func (s *Store) SetAvatar(_ context.Context, id int64, key *string) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("пользователь %d: %w", id, domain.ErrNotFound)
	}
	previous := u.Avatar
	u.Avatar = key
	s.users[id] = u
	return previous, nil
}

// --- subscriptions ---

func (s *Store) AddSubscription(_ context.Context, subscriberID, authorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if subscriberID == authorID {
		return domain.ErrSelfSubscription
	}
	if _, ok := s.users[authorID]; !ok {
		return fmt.Errorf("автор %d: %w", authorID, domain.ErrNotFound)
	}
	key := pair{subscriberID, authorID}
	if _, ok := s.subscriptions[key]; ok {
		return fmt.Errorf("подписка: %w", domain.ErrAlreadyExists)
	}
	_, at := s.next()
	s.subscriptions[key] = at
	return nil
}

func (s *Store) RemoveSubscription(_ context.Context, subscriberID, authorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pair{subscriberID, authorID}
	if _, ok := s.subscriptions[key]; !ok {
		return fmt.Errorf("подписка: %w", domain.ErrNotInRelation)
	}
	delete(s.subscriptions, key)
	return nil
}

func (s *Store) ListSubscriptions(_ context.Context, subscriberID int64, page domain.Page) ([]domain.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type entry struct {
		user domain.User
		at   time.Time
	}
	var entries []entry
	for key, at := range s.subscriptions {
		if key.a == subscriberID {
			entries = append(entries, entry{s.users[key.b], at})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].at.After(entries[j].at) })

	authors := make([]domain.User, len(entries))
	for i, e := range entries {
		authors[i] = e.user
	}
	return paginate(authors, page), len(authors), nil
}

func (s *Store) SubscribedTo(_ context.Context, subscriberID int64, authorIDs []int64) (map[int64]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]bool, len(authorIDs))
	for _, id := range authorIDs {
		if _, ok := s.subscriptions[pair{subscriberID, id}]; ok {
			result[id] = true
		}
	}
	return result, nil
}

// --- ingredients ---

func (s *Store) SearchIngredients(_ context.Context, namePrefix string) ([]domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := strings.ToLower(namePrefix)
	result := []domain.Ingredient{}
	for _, ing := range s.ingredients {
		if strings.HasPrefix(strings.ToLower(ing.Name), prefix) {
			result = append(result, ing)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (s *Store) GetIngredient(_ context.Context, id int64) (*domain.Ingredient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ing, ok := s.ingredients[id]
	if !ok {
		return nil, fmt.Errorf("ингредиент %d: %w", id, domain.ErrNotFound)
	}
	return &ing, nil
}

func (s *Store) MissingIngredientIDs(_ context.Context, ids []int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var missing []int64
	for _, id := range ids {
		if _, ok := s.ingredients[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

func (s *Store) ImportIngredients(_ context.Context, items []domain.Ingredient) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inserted int64
	for _, item := range items {
		if s.ingredientExists(item.Name, item.MeasurementUnit) {
			continue
		}
		item.ID, _ = s.next()
		s.ingredients[item.ID] = item
		inserted++
	}
	return inserted, nil
}

func (s *Store) ingredientExists(name, unit string) bool {
	for _, ing := range s.ingredients {
		if ing.Name == name && ing.MeasurementUnit == unit {
			return true
		}
	}
	return false
}

// --- recipes ---

// checkLines повторяет ограничения recipe_ingredients: существующий ингредиент, без повторов
func (s *Store) checkLines(lines []domain.RecipeIngredient) error {
	seen := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := s.ingredients[line.IngredientID]; !ok {
			return fmt.Errorf("ингредиент %d: %w", line.IngredientID, domain.ErrNotFound)
		}
		if _, ok := seen[line.IngredientID]; ok {
			return fmt.Errorf("строка рецепта: %w", domain.ErrAlreadyExists)
		}
		seen[line.IngredientID] = struct{}{}
	}
	return nil
}

func (s *Store) fillLines(recipe *domain.Recipe) {
	lines := make([]domain.RecipeIngredient, len(recipe.Ingredients))
	for i, line := range recipe.Ingredients {
		ing := s.ingredients[line.IngredientID]
		line.RecipeID = recipe.ID
		line.Name = ing.Name
		line.MeasurementUnit = ing.MeasurementUnit
		lines[i] = line
	}
	recipe.Ingredients = lines
}

func (s *Store) CreateRecipeWithIngredients(_ context.Context, recipe *domain.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkLines(recipe.Ingredients); err != nil {
		return err
	}
	if _, ok := s.users[recipe.AuthorID]; !ok {
		return fmt.Errorf("автор %d: %w", recipe.AuthorID, domain.ErrNotFound)
	}

	recipe.ID, recipe.CreatedAt = s.next()
	recipe.UpdatedAt = recipe.CreatedAt
	for i := range recipe.Ingredients {
		recipe.Ingredients[i].RecipeID = recipe.ID
	}

	stored := *recipe
	s.fillLines(&stored)
	s.recipes[recipe.ID] = stored
	return nil
}

func (s *Store) ReplaceRecipeIngredients(_ context.Context, recipe *domain.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.recipes[recipe.ID]
	if !ok {
		return fmt.Errorf("рецепт %d: %w", recipe.ID, domain.ErrNotFound)
	}
	if err := s.checkLines(recipe.Ingredients); err != nil {
		return err
	}

	_, recipe.UpdatedAt = s.next()
	stored := *recipe
	stored.AuthorID = current.AuthorID
	stored.CreatedAt = current.CreatedAt
	s.fillLines(&stored)
	s.recipes[recipe.ID] = stored
	return nil
}

func (s *Store) DeleteRecipe(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recipes[id]; !ok {
		return fmt.Errorf("рецепт %d: %w", id, domain.ErrNotFound)
	}
	delete(s.recipes, id)
	for _, rel := range s.relations {
		for key := range rel {
			if key.b == id {
				delete(rel, key)
			}
		}
	}
	return nil
}

func (s *Store) GetRecipe(_ context.Context, id int64) (*domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		return nil, fmt.Errorf("рецепт %d: %w", id, domain.ErrNotFound)
	}
	return cloneRecipe(r), nil
}

func cloneRecipe(r domain.Recipe) *domain.Recipe {
	r.Ingredients = append([]domain.RecipeIngredient(nil), r.Ingredients...)
	return &r
}

// newestFirst возвращает рецепты, подходящие под match, в порядке убывания даты создания
func (s *Store) newestFirst(match func(domain.Recipe) bool) []domain.Recipe {
	result := []domain.Recipe{}
	for _, r := range s.recipes {
		if match(r) {
			result = append(result, *cloneRecipe(r))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	return result
}

func (s *Store) ListRecipes(_ context.Context, filter domain.RecipeFilter, page domain.Page) ([]domain.Recipe, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipes := s.newestFirst(func(r domain.Recipe) bool {
		if filter.AuthorID != nil && r.AuthorID != *filter.AuthorID {
			return false
		}
		if filter.ViewerID != 0 {
			key := pair{filter.ViewerID, r.ID}
			if _, ok := s.relations[domain.RelationFavorite][key]; filter.FavoritedOnly && !ok {
				return false
			}
			if _, ok := s.relations[domain.RelationShoppingCart][key]; filter.InCartOnly && !ok {
				return false
			}
		}
		return true
	})
	return paginate(recipes, page), len(recipes), nil
}

func (s *Store) ListAuthorsRecipes(_ context.Context, authorIDs []int64, limit int) (map[int64][]domain.Recipe, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]bool, len(authorIDs))
	for _, id := range authorIDs {
		wanted[id] = true
	}

	result := make(map[int64][]domain.Recipe, len(authorIDs))
	for _, r := range s.newestFirst(func(r domain.Recipe) bool { return wanted[r.AuthorID] }) {
		if limit > 0 && len(result[r.AuthorID]) >= limit {
			continue
		}
		result[r.AuthorID] = append(result[r.AuthorID], r)
	}
	return result, nil
}

func (s *Store) CountAuthorsRecipes(_ context.Context, authorIDs []int64) (map[int64]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wanted := make(map[int64]bool, len(authorIDs))
	for _, id := range authorIDs {
		wanted[id] = true
	}

	result := make(map[int64]int, len(authorIDs))
	for _, r := range s.recipes {
		if wanted[r.AuthorID] {
			result[r.AuthorID]++
		}
	}
	return result, nil
}

// --- favorites & shopping cart ---

func (s *Store) AddRelation(_ context.Context, rel domain.Relation, userID, recipeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rels, ok := s.relations[rel]
	if !ok {
		return fmt.Errorf("неизвестный тип связи: %d", rel)
	}
	if _, ok := s.recipes[recipeID]; !ok {
		return fmt.Errorf("рецепт %d: %w", recipeID, domain.ErrNotFound)
	}
	key := pair{userID, recipeID}
	if _, ok := rels[key]; ok {
		return fmt.Errorf("%s: %w", rel, domain.ErrAlreadyExists)
	}
	_, at := s.next()
	rels[key] = at
	return nil
}

func (s *Store) RemoveRelation(_ context.Context, rel domain.Relation, userID, recipeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pair{userID, recipeID}
	if _, ok := s.relations[rel][key]; !ok {
		return fmt.Errorf("%s: %w", rel, domain.ErrNotInRelation)
	}
	delete(s.relations[rel], key)
	return nil
}

func (s *Store) HasRelation(_ context.Context, rel domain.Relation, userID, recipeID int64) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.relations[rel][pair{userID, recipeID}]
	return ok, nil
}

func (s *Store) RelationFlags(_ context.Context, userID int64, recipeIDs []int64) (map[int64]domain.RecipeFlags, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]domain.RecipeFlags, len(recipeIDs))
	for _, id := range recipeIDs {
		key := pair{userID, id}
		_, fav := s.relations[domain.RelationFavorite][key]
		_, cart := s.relations[domain.RelationShoppingCart][key]
		result[id] = domain.RecipeFlags{IsFavorited: fav, IsInShoppingCart: cart}
	}
	return result, nil
}

func (s *Store) ListRelatedRecipes(_ context.Context, rel domain.Relation, userID int64, page domain.Page) ([]domain.Recipe, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipes := s.newestFirst(func(r domain.Recipe) bool {
		_, ok := s.relations[rel][pair{userID, r.ID}]
		return ok
	})
	return paginate(recipes, page), len(recipes), nil
}

func (s *Store) ShoppingList(_ context.Context, userID int64) ([]domain.ShoppingListItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type key struct{ name, unit string }
	totals := make(map[key]int)
	for p := range s.relations[domain.RelationShoppingCart] {
		if p.a != userID {
			continue
		}
		for _, line := range s.recipes[p.b].Ingredients {
			totals[key{line.Name, line.MeasurementUnit}] += line.Amount
		}
	}

	items := make([]domain.ShoppingListItem, 0, len(totals))
	for k, total := range totals {
		items = append(items, domain.ShoppingListItem{Name: k.name, MeasurementUnit: k.unit, TotalAmount: total})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].MeasurementUnit < items[j].MeasurementUnit
	})
	return items, nil
}
