package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type samplePayload struct {
	Name     string `validate:"required,min=1,max=255"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid payload passes", func(t *testing.T) {
		err := ValidateStruct(&samplePayload{
			Name:     "Ada",
			Email:    "ada@example.com",
			Password: "correct-horse",
		})
		assert.NoError(t, err)
	})

	t.Run("missing fields are reported per field", func(t *testing.T) {
		err := ValidateStruct(&samplePayload{})
		require.Error(t, err)
		require.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Name")
		assert.Contains(t, fields, "Email")
		assert.Contains(t, fields, "Password")
		assert.Equal(t, "Name is required", fields["Name"])
	})

	t.Run("bad email reported", func(t *testing.T) {
		err := ValidateStruct(&samplePayload{
			Name:     "Ada",
			Email:    "not-an-email",
			Password: "correct-horse",
		})
		require.True(t, IsValidationError(err))
		assert.Equal(t, "Email must be a valid email", GetValidationFields(err)["Email"])
	})

	t.Run("short password reported with min", func(t *testing.T) {
		err := ValidateStruct(&samplePayload{
			Name:     "Ada",
			Email:    "ada@example.com",
			Password: "short",
		})
		require.True(t, IsValidationError(err))
		assert.Equal(t, "Password must be at least 8", GetValidationFields(err)["Password"])
	})
}

func TestGetValidationFields_NonValidationError(t *testing.T) {
	assert.Nil(t, GetValidationFields(errors.New("boom")))
	assert.False(t, IsValidationError(errors.New("boom")))
}
