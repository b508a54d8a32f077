package utils

import (
	"sort"
	"testing"
	"time"

	apperrors "chatapi/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDv7SortsInCreationOrder(t *testing.T) {
	gen := UUIDv7Generator{}
	ids := make([]string, 200)
	for i := range ids {
		ids[i] = gen.NewID()
	}

	assert.True(t, sort.StringsAreSorted(ids))
}

func TestSequenceGenerator(t *testing.T) {
	gen := NewSequenceGenerator("msg")
	assert.Equal(t, "msg-000001", gen.NewID())
	assert.Equal(t, "msg-000002", gen.NewID())
}

func TestStepClock(t *testing.T) {
	start := time.Unix(1000, 0)
	c := NewStepClock(start, time.Second)

	assert.Equal(t, int64(1000), c.Now().Unix())
	assert.Equal(t, int64(1001), c.Now().Unix())
}

func TestValidateStruct(t *testing.T) {
	type input struct {
		Email string `validate:"required,email"`
		Role  string `validate:"omitempty,oneof=admin user"`
	}

	require.NoError(t, ValidateStruct(input{Email: "a@b.co"}))

	err := ValidateStruct(input{Email: "nope", Role: "root"})
	require.Error(t, err)
	assert.True(t, apperrors.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "email must be a valid email")
	assert.Contains(t, err.Error(), "role must be one of: admin user")
}

func TestValidateEmailAndPassword(t *testing.T) {
	assert.NoError(t, ValidateEmail("ada@example.com"))
	assert.True(t, apperrors.IsInvalidInput(ValidateEmail("ada.example.com")))

	assert.NoError(t, ValidatePassword("12345"))
	assert.True(t, apperrors.IsInvalidInput(ValidatePassword("1234")))
}
