package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleStruct struct {
	Name  string `validate:"required"`
	Count int    `validate:"gte=1,lte=10"`
	Mode  string `validate:"omitempty,oneof=fast quality cheap"`
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		err := ValidateStruct(&sampleStruct{Name: "test", Count: 5})
		assert.NoError(t, err)
	})

	t.Run("missing required field", func(t *testing.T) {
		err := ValidateStruct(&sampleStruct{Count: 5})
		require.Error(t, err)
		assert.True(t, IsValidationError(err))

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Name")
		assert.Contains(t, fields["Name"], "required")
	})

	t.Run("range violation", func(t *testing.T) {
		err := ValidateStruct(&sampleStruct{Name: "test", Count: 99})
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Contains(t, fields, "Count")
	})

	t.Run("oneof violation", func(t *testing.T) {
		err := ValidateStruct(&sampleStruct{Name: "test", Count: 5, Mode: "turbo"})
		require.Error(t, err)

		fields := GetValidationFields(err)
		assert.Contains(t, fields["Mode"], "one of")
	})
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, IsValidationError(&ValidationError{Message: "bad"}))
	assert.False(t, IsValidationError(errors.New("plain error")))
	assert.False(t, IsValidationError(nil))
}

func TestGetValidationFields_NonValidationError(t *testing.T) {
	assert.Nil(t, GetValidationFields(errors.New("plain error")))
}

func TestValidateUUID(t *testing.T) {
	assert.NoError(t, ValidateUUID("b3f1a6a0-7c1e-4e9f-9a3b-2d1c5e8f0a42"))
	assert.Error(t, ValidateUUID("not-a-uuid"))
	assert.Error(t, ValidateUUID(""))
}
