// internal/domain/user.go
package domain

import (
	"strings"
	"time"
)

// User представляет модель пользователя в системе.
// Соответствует таблице 'users' в базе данных.
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Username     string    `json:"username" db:"username"`
	FirstName    string    `json:"first_name" db:"first_name"`
	LastName     string    `json:"last_name" db:"last_name"`
	Avatar       *string   `json:"-" db:"avatar"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"-" db:"created_at"`
	UpdatedAt    time.Time `json:"-" db:"updated_at"`
}

// Subscription — подписка subscriber на автора. Связь несимметрична.
type Subscription struct {
	ID           int64     `db:"id"`
	SubscriberID int64     `db:"subscriber_id"`
	AuthorID     int64     `db:"author_id"`
	CreatedAt    time.Time `db:"created_at"`
}

// NormalizeEmail приводит email к виду, в котором он хранится в бд.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
