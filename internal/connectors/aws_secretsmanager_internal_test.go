package connectors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSONField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		payload     string
		field       string
		want        string
		wantAbsent  bool
		wantError   bool
	}{
		{
			name:    "string field unquoted",
			payload: `{"username": "admin", "password": "secret123"}`,
			field:   "password",
			want:    "secret123",
		},
		{
			name:    "number keeps json encoding",
			payload: `{"port": 5432}`,
			field:   "port",
			want:    "5432",
		},
		{
			name:    "bool keeps json encoding",
			payload: `{"enabled": true}`,
			field:   "enabled",
			want:    "true",
		},
		{
			name:    "object keeps json encoding",
			payload: `{"tls": {"cert": "pem"}}`,
			field:   "tls",
			want:    `{"cert": "pem"}`,
		},
		{
			name:    "empty string value",
			payload: `{"empty": ""}`,
			field:   "empty",
			want:    "",
		},
		{
			name:       "absent field",
			payload:    `{"username": "admin"}`,
			field:      "password",
			wantAbsent: true,
		},
		{
			name:      "non-object payload",
			payload:   `"just a string"`,
			field:     "password",
			wantError: true,
		},
		{
			name:      "invalid json",
			payload:   `{broken`,
			field:     "password",
			wantError: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			value, err := extractJSONField([]byte(tt.payload), tt.field)
			if tt.wantError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantAbsent {
				assert.Nil(t, value)
				return
			}
			assert.Equal(t, tt.want, string(value))
		})
	}
}
