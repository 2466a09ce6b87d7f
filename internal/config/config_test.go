package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSecretsOverridesDatabasePassword(t *testing.T) {
	t.Setenv("RPM_DATABASE_PASSWORD", "from-env")
	t.Setenv("RPM_PINATA_JWT", "pinata-token")

	cfg := &Config{Database: DatabaseConfig{Password: "from-file"}}
	require.NoError(t, cfg.LoadSecrets())

	assert.Equal(t, "from-env", cfg.Database.Password)
	assert.Equal(t, "pinata-token", cfg.Secrets.PinataJWT)
	assert.Equal(t, "change-me", cfg.Secrets.WalletJWTSecret)
}

func TestDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "rpm", Password: "pw", Name: "rpm", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=rpm password=pw dbname=rpm sslmode=disable", d.DSN())
}
