package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	t.Setenv("TTX_STORAGE_DRIVER", "inmem")
	t.Setenv("TTX_OPS_API_TOKEN", "ops")
	t.Setenv("TTX_TRIPLETEX_COMPANY_ID", "123")

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8081", cfg.WebhookAPIListenAddress)
	assert.Equal(t, "https://tripletex.no/v2", cfg.TripletexBaseURL)
	assert.Equal(t, 20*time.Second, cfg.TripletexTimeout)
	assert.Equal(t, 48*time.Hour, cfg.TripletexSessionLifetime)
	assert.Equal(t, 123, cfg.TripletexCompanyID)
	assert.False(t, cfg.IsEnvProduction())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "postgres without dsn",
			config:  Config{StorageDriver: StorageDriverPostgres, OpsAPIToken: "x"},
			wantErr: ErrMissingPostgresDSN,
		},
		{
			name:    "unknown driver",
			config:  Config{StorageDriver: "mysql", OpsAPIToken: "x"},
			wantErr: ErrUnknownStorageDriver,
		},
		{
			name:    "missing ops token",
			config:  Config{StorageDriver: StorageDriverInMemory},
			wantErr: ErrMissingOpsAPIToken,
		},
		{
			name:   "valid",
			config: Config{StorageDriver: StorageDriverPostgres, PostgresDSN: "postgres://", OpsAPIToken: "x"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
