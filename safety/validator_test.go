package safety

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name       string
		response   string
		wantSafe   bool
		wantReason string
	}{
		{
			name:       "harmful keyword",
			response:   "you should kill the process",
			wantSafe:   false,
			wantReason: "Response contains potentially harmful content.",
		},
		{
			name:       "harmful keyword uppercase",
			response:   "that would be ILLEGAL",
			wantSafe:   false,
			wantReason: "Response contains potentially harmful content.",
		},
		{
			name:       "personal data leak",
			response:   "please share your personal data with us",
			wantSafe:   false,
			wantReason: "Response inadvertently shares personal data.",
		},
		{
			name:       "location leak",
			response:   "send me your location",
			wantSafe:   false,
			wantReason: "Response inadvertently shares personal data.",
		},
		{
			name:     "safe response",
			response: "The weather is nice",
			wantSafe: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			safe, reason := validator.Validate(tc.response)
			assert.Equal(t, tc.wantSafe, safe)
			assert.Equal(t, tc.wantReason, reason)
		})
	}
}
