package config

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	strong := strings.Repeat("k", minJWTSecretLength)

	tests := []struct {
		name         string
		env          map[string]string
		wantWarnings int
		wantErr      string
	}{
		{
			name:         "Dev defaults only warn",
			env:          map[string]string{"APP_ENV": "dev"},
			wantWarnings: 2,
		},
		{
			name: "Dev with strong settings",
			env:  map[string]string{"APP_ENV": "dev", "JWT_SECRET_KEY": strong, "SEED_ADMIN_PASSWORD": "s3cure-pass"},
		},
		{
			name:    "Production default secret",
			env:     map[string]string{"APP_ENV": "production", "SEED_ADMIN_PASSWORD": "s3cure-pass"},
			wantErr: "built-in default",
		},
		{
			name:    "Production empty secret",
			env:     map[string]string{"APP_ENV": "production", "JWT_SECRET_KEY": "", "SEED_ADMIN_PASSWORD": "s3cure-pass"},
			wantErr: "not set",
		},
		{
			name:    "Production short secret",
			env:     map[string]string{"APP_ENV": "production", "JWT_SECRET_KEY": "short", "SEED_ADMIN_PASSWORD": "s3cure-pass"},
			wantErr: "at least 32 bytes",
		},
		{
			name:    "Production default admin password",
			env:     map[string]string{"APP_ENV": "production", "JWT_SECRET_KEY": strong},
			wantErr: "SEED_ADMIN_PASSWORD",
		},
		{
			name: "Production strong settings",
			env:  map[string]string{"APP_ENV": "production", "JWT_SECRET_KEY": strong, "SEED_ADMIN_PASSWORD": "s3cure-pass"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"APP_ENV", "JWT_SECRET_KEY", "SEED_ADMIN_PASSWORD"} {
				t.Setenv(k, "")
				require.NoError(t, os.Unsetenv(k))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg := LoadEnv()

			warnings, err := cfg.Validate()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, warnings, tt.wantWarnings)
		})
	}
}
