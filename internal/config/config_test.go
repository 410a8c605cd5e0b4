package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PASSWORD", "segredo")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("FIRST_ADMIN_EMAIL", " Admin@Clinica.com.br ")

	path := writeConfig(t, `
site_name: Clínica Bem Estar
base_url: http://localhost:9090/
database:
  host: localhost
  user: clinica
  dbname: clinica
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "Clínica Bem Estar", cfg.SiteName)
	assert.Equal(t, "http://localhost:9090", cfg.BaseURL)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "segredo", cfg.Database.Password)
	assert.Equal(t, "templates", cfg.TemplatesPath)
	assert.Equal(t, "migrations", cfg.Database.MigrationsPath)
	assert.Equal(t, "clinica_session", cfg.Session.CookieName)
	assert.Equal(t, 5, cfg.RateLimit.LoginBurst)
	assert.Equal(t, "admin@clinica.com.br", cfg.FirstAdmin.Email)
	assert.False(t, cfg.IsProduction())
}

func TestLoadConfigProductionRequiresHTTPS(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("BASE_URL", "http://painel.clinica.com.br")
	path := writeConfig(t, "database:\n  dsn: x\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "https://")

	t.Setenv("BASE_URL", "https://painel.clinica.com.br")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nao-existe.yaml"))
	require.Error(t, err)
}

func TestLoadConfigRequiresDatabase(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("DB_HOST", "")
	path := writeConfig(t, "base_url: http://localhost\n")
	_, err := LoadConfig(path)
	require.Error(t, err)
}
