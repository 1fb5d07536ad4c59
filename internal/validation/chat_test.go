package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateChatID(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"Valid", "112233445566778899", false},
		{"Min Length", "12345678901234567", false},
		{"Max Length", "12345678901234567890", false},
		{"Too Short", "1234567890123456", true},
		{"Too Long", "123456789012345678901", true},
		{"Leading Zero", "012345678901234567", true},
		{"Letters", "11223344556677889a", true},
		{"Empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateChatID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRoleSuffix(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		suffix  string
		wantErr bool
	}{
		{"Base", "Member", false},
		{"Single Position", "TC", false},
		{"Staff Pair", "DIR:ADIR", false},
		{"Empty Token", "DIR::ADIR", true},
		{"Trailing Colon", "DIR:", true},
		{"Space", "DIR ADIR", true},
		{"Too Long", strings.Repeat("A", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRoleSuffix(tt.suffix)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
