package validation

import (
	"errors"
	"testing"

	"github.com/GoArmGo/Foodgram/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	ID     int64 `json:"id" validate:"required"`
	Amount int   `json:"amount" validate:"min=1"`
}

type request struct {
	Username    string `json:"username" validate:"required,max=50,username"`
	Email       string `json:"email" validate:"required,email"`
	CookingTime int    `json:"cooking_time" validate:"min=1"`
	Lines       []line `json:"ingredients" validate:"dive"`
}

func TestValidateStructOK(t *testing.T) {
	req := request{Username: "chef.anna", Email: "anna@example.com", CookingTime: 5, Lines: []line{{ID: 1, Amount: 2}}}
	assert.NoError(t, ValidateStruct(&req))
}

func TestValidateStructFieldNames(t *testing.T) {
	req := request{Username: "bad name!", Email: "nope", CookingTime: 0, Lines: []line{{ID: 1, Amount: 0}}}

	err := ValidateStruct(&req)
	require.Error(t, err)

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Fields, "username")
	assert.Contains(t, ve.Fields, "email")
	assert.Contains(t, ve.Fields, "cooking_time")
	assert.Contains(t, ve.Fields, "ingredients[0].amount")
	assert.Equal(t, []string{"Убедитесь, что это значение больше либо равно 1."}, ve.Fields["cooking_time"])
}

func TestValidateStructRequired(t *testing.T) {
	err := ValidateStruct(&request{CookingTime: 1})

	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"Обязательное поле."}, ve.Fields["username"])
}
