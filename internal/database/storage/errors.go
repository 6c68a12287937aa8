package storage

import (
	"errors"
	"fmt"

	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/lib/pq"
)

// Коды ошибок PostgreSQL, которые имеют смысл для домена
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqCheckViolation      = "23514"
)

// Ограничения из миграций, на которые ссылается код
const (
	constraintUsersEmail       = "users_email_key"
	constraintUsersUsername    = "users_username_key"
	constraintNoSelfSubscribe  = "no_self_subscription"
	constraintCookingTimeMin   = "recipes_cooking_time_min"
	constraintIngredientAmount = "recipe_ingredients_amount_min"
)

// mapPQError переводит ошибку драйвера в доменную, сохраняя исходную в цепочке.
// Неизвестные ошибки возвращаются как есть.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case pqUniqueViolation:
		return fmt.Errorf("%w: %s: %w", domain.ErrAlreadyExists, pqErr.Constraint, err)
	case pqForeignKeyViolation:
		return fmt.Errorf("%w: %s: %w", domain.ErrNotFound, pqErr.Constraint, err)
	case pqCheckViolation:
		switch pqErr.Constraint {
		case constraintNoSelfSubscribe:
			return fmt.Errorf("%w: %w", domain.ErrSelfSubscription, err)
		case constraintCookingTimeMin:
			return domain.NewValidationError("cooking_time", fmt.Sprintf("Убедитесь, что это значение больше либо равно %d.", domain.MinCookingTime))
		case constraintIngredientAmount:
			return domain.NewValidationError("ingredients", fmt.Sprintf("Количество ингредиента должно быть не меньше %d.", domain.MinIngredientAmount))
		}
		return domain.NewValidationError(domain.NonFieldErrors, pqErr.Message)
	}
	return err
}

// uniqueConstraint возвращает имя нарушенного ограничения уникальности или "".
func uniqueConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return pqErr.Constraint
	}
	return ""
}
