package auth

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/GoArmGo/Foodgram/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// BcryptHasher хеширует пароли через bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher создает хешер. cost <= 0 означает bcrypt.DefaultCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("не удалось захешировать пароль: %w", err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Compare(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "12345678": {}, "123456789": {},
	"1234567890": {}, "qwerty123": {}, "qwertyuiop": {}, "iloveyou": {}, "11111111": {},
	"00000000": {}, "abc12345": {}, "football": {}, "baseball": {}, "sunshine": {},
	"princess": {}, "welcome1": {}, "admin123": {}, "letmein1": {}, "trustno1": {},
	"йцукенгш": {}, "пароль123": {},
}

// ValidatePasswordStrength проверяет пароль. Ошибки складываются в поле field.
// username и email нужны, чтобы отклонить пароль, совпадающий с ними.
func ValidatePasswordStrength(field, password, username, email string) *domain.ValidationError {
	ve := &domain.ValidationError{}

	if len([]rune(password)) < minPasswordLength {
		ve.Add(field, fmt.Sprintf("Введённый пароль слишком короткий. Он должен содержать как минимум %d символов.", minPasswordLength))
	}
	if password != "" && isNumeric(password) {
		ve.Add(field, "Введённый пароль состоит только из цифр.")
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		ve.Add(field, "Введённый пароль слишком широко распространён.")
	}

	lower := strings.ToLower(password)
	localPart, _, _ := strings.Cut(strings.ToLower(email), "@")
	if (username != "" && lower == strings.ToLower(username)) || (localPart != "" && lower == localPart) {
		ve.Add(field, "Введённый пароль слишком похож на имя пользователя.")
	}

	if ve.Empty() {
		return nil
	}
	return ve
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
