package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type loginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=8"`
	OrgID    string `validate:"omitempty,orgid"`
}

func TestValidate_OK(t *testing.T) {
	assert.Nil(t, Validate(loginInput{
		Email:    "doc@clinic.test",
		Password: "password123",
		OrgID:    "64B7F0C2A1E4D3B2C1A09F8E",
	}))
}

func TestValidate_ReportsFieldTags(t *testing.T) {
	errs := Validate(loginInput{Email: "nope", OrgID: "clinic-1"})

	assert.Equal(t, map[string]string{
		"Email":    "email",
		"Password": "required",
		"OrgID":    "orgid",
	}, errs)
}

func TestValidate_OrgIDAcceptsUUID(t *testing.T) {
	assert.Nil(t, Validate(loginInput{
		Email:    "doc@clinic.test",
		Password: "password123",
		OrgID:    "3f0b9c1e-6a7d-4c2b-9e8f-1a2b3c4d5e6f",
	}))
}
