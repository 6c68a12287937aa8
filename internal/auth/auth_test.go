package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	m, err := NewJWTManager("secret-for-tests", time.Hour)
	require.NoError(t, err)

	token, err := m.GenerateToken(42)
	require.NoError(t, err)

	id, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestJWTRejectsForeignSecret(t *testing.T) {
	a, _ := NewJWTManager("first-secret", time.Hour)
	b, _ := NewJWTManager("second-secret", time.Hour)

	token, err := a.GenerateToken(1)
	require.NoError(t, err)

	_, err = b.ValidateToken(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestJWTExpired(t *testing.T) {
	m, _ := NewJWTManager("secret", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	token, err := m.GenerateToken(7)
	require.NoError(t, err)

	m.now = time.Now
	_, err = m.ValidateToken(token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestJWTGarbage(t *testing.T) {
	m, _ := NewJWTManager("secret", time.Minute)
	_, err := m.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewJWTManagerEmptySecret(t *testing.T) {
	_, err := NewJWTManager("", time.Hour)
	assert.Error(t, err)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)

	hash, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)
	assert.True(t, h.Compare(hash, "s3cret-pass"))
	assert.False(t, h.Compare(hash, "other"))
}

func TestValidatePasswordStrength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"good", "Tomato-Soup-77", false},
		{"short", "abc12", true},
		{"numeric", "1234509876", true},
		{"common", "password123", true},
		{"same as username", "ChefAnna1", true},
		{"same as email local part", "anna.cook", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ve := ValidatePasswordStrength("password", tt.password, "chefanna1", "anna.cook@example.com")
			if tt.wantErr {
				require.NotNil(t, ve)
				assert.NotEmpty(t, ve.Fields["password"])
			} else {
				assert.Nil(t, ve)
			}
		})
	}
}
