package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		errMsg   string
	}{
		{name: "Valid password", password: "Corr3ct-Horse"},
		{name: "Eight characters is enough", password: "abcdefg1"},
		{name: "Too short", password: "Sh0rt!", errMsg: "This password is too short. It must contain at least 8 characters."},
		{name: "Common", password: "Password1", errMsg: "This password is too common."},
		{name: "Numeric", password: "98765432101", errMsg: "This password is entirely numeric."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tt.errMsg)
			assert.True(t, IsValidationError(err))
		})
	}
}
