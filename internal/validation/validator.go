// Package validation проверяет входные DTO через go-playground/validator
// и переводит ошибки в поле-ориентированный domain.ValidationError.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

// GetValidator возвращает общий экземпляр валидатора.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// В ошибках используем имена полей из json-тегов
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})

		_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
	})

	return validate
}

// ValidateStruct проверяет структуру. Возвращает nil или *domain.ValidationError.
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.NewValidationError(domain.NonFieldErrors, err.Error())
	}

	ve := &domain.ValidationError{}
	for _, fe := range fieldErrs {
		ve.Add(fieldPath(fe), translateError(fe))
	}
	return ve
}

// fieldPath строит путь поля без имени корневой структуры: ingredients[0].amount
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

var messages = map[string]string{
	"required": "Обязательное поле.",
	"email":    "Введите правильный адрес электронной почты.",
	"username": "Имя пользователя может содержать только буквы, цифры и символы @/./+/-/_.",
	"datauri":  "Загруженный файл не является корректным изображением.",
}

var messagesWithParam = map[string]string{
	"max": "Убедитесь, что это значение содержит не более %s символов.",
	"min": "Убедитесь, что это значение содержит не менее %s символов.",
	"gte": "Убедитесь, что это значение больше либо равно %s.",
	"lte": "Убедитесь, что это значение меньше либо равно %s.",
}

func translateError(fe validator.FieldError) string {
	if msg, ok := messages[fe.Tag()]; ok {
		return msg
	}
	if tmpl, ok := messagesWithParam[fe.Tag()]; ok {
		// для чисел min/max означают значение, а не длину
		if k := fe.Kind(); k >= reflect.Int && k <= reflect.Float64 {
			switch fe.Tag() {
			case "min":
				tmpl = messagesWithParam["gte"]
			case "max":
				tmpl = messagesWithParam["lte"]
			}
		}
		return fmt.Sprintf(tmpl, fe.Param())
	}
	return fmt.Sprintf("Некорректное значение (%s).", fe.Tag())
}
