package ports

// TokenManager выпускает и проверяет токены доступа.
type TokenManager interface {
	GenerateToken(userID int64) (string, error)
	ValidateToken(token string) (int64, error)
}

// PasswordHasher хэширует и сверяет пароли.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}
