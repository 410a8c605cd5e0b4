// internal/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	// MigrationsPath aponta para o diretório com os arquivos *.sql do golang-migrate.
	MigrationsPath string `yaml:"migrations_path"`
}

type SessionConfig struct {
	CookieName    string `yaml:"cookie_name"`
	LifetimeHours int    `yaml:"lifetime_hours"`
}

type RateLimitConfig struct {
	LoginRPS   float64 `yaml:"login_rps"`
	LoginBurst int     `yaml:"login_burst"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type Config struct {
	SiteName      string          `yaml:"site_name"`
	ClinicName    string          `yaml:"clinic_name"`
	CurrentYear   int             `yaml:"current_year"`
	BaseURL       string          `yaml:"base_url"`
	Port          int             `yaml:"port"`
	AppEnv        string          `yaml:"app_env"`
	TemplatesPath string          `yaml:"templates_path"`
	StaticPath    string          `yaml:"static_path"`
	Database      DatabaseConfig  `yaml:"database"`
	Session       SessionConfig   `yaml:"session"`
	RateLimit     RateLimitConfig `yaml:"rate_limit"`
	Metrics       MetricsConfig   `yaml:"metrics"`

	FirstAdmin FirstAdminConfig `yaml:"-"`
}

// FirstAdminConfig vem só do ambiente (FIRST_ADMIN_EMAIL / FIRST_ADMIN_PASSWORD).
type FirstAdminConfig struct {
	Email    string
	Password string
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) SessionLifetime() time.Duration {
	return time.Duration(c.Session.LifetimeHours) * time.Hour
}

func getStringEnvOrDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
		slog.Warn("Não foi possível converter a variável de ambiente para número, usando o valor padrão", "key", key, "value", valueStr)
	}
	return defaultValue
}

func getBoolEnvOrDefault(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
		slog.Warn("Não foi possível converter a variável de ambiente para booleano, usando o valor padrão", "key", key, "value", valueStr)
	}
	return defaultValue
}

func LoadConfig(filename string) (*Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load("configs/.env"); err != nil {
			slog.Info("configs/.env não encontrado; esperado em produção ou com variáveis definidas no sistema.", "error", err)
		} else {
			slog.Info("Variáveis de ambiente carregadas de configs/.env")
		}
	}

	file, err := os.Open(filename)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("arquivo de configuração não encontrado: %s", filename)
	}
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir o arquivo de configuração '%s': %w", filename, err)
	}
	defer file.Close()

	var cfg Config
	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("erro ao decodificar YAML de '%s': %w", filename, err)
	}

	if err := applyEnvironment(&cfg); err != nil {
		return nil, err
	}

	slog.Info("Configuração carregada", "app_env", cfg.AppEnv, "base_url", cfg.BaseURL, "port", cfg.Port)
	return &cfg, nil
}

// applyEnvironment aplica as variáveis de ambiente sobre o YAML, preenche padrões e valida.
func applyEnvironment(cfg *Config) error {
	cfg.AppEnv = getStringEnvOrDefault("APP_ENV", cfg.AppEnv)
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	isProduction := cfg.IsProduction()

	cfg.BaseURL = strings.TrimSuffix(getStringEnvOrDefault("BASE_URL", cfg.BaseURL), "/")
	cfg.Port = getIntEnvOrDefault("PORT", cfg.Port)

	if dsn := os.Getenv("DATABASE_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
		cfg.Database.Host = ""
	} else {
		cfg.Database.Host = getStringEnvOrDefault("DB_HOST", cfg.Database.Host)
		cfg.Database.Port = getIntEnvOrDefault("DB_PORT", cfg.Database.Port)
		cfg.Database.User = getStringEnvOrDefault("DB_USER", cfg.Database.User)
		cfg.Database.DBName = getStringEnvOrDefault("DB_NAME", cfg.Database.DBName)
	}
	// Senha do banco só pelo ambiente.
	cfg.Database.Password = getStringEnvOrDefault("DB_PASSWORD", "")
	cfg.Database.MigrationsPath = getStringEnvOrDefault("MIGRATIONS_PATH", cfg.Database.MigrationsPath)

	cfg.FirstAdmin.Email = strings.ToLower(strings.TrimSpace(os.Getenv("FIRST_ADMIN_EMAIL")))
	cfg.FirstAdmin.Password = os.Getenv("FIRST_ADMIN_PASSWORD")

	cfg.TemplatesPath = getStringEnvOrDefault("TEMPLATES_PATH", cfg.TemplatesPath)
	if cfg.TemplatesPath == "" {
		cfg.TemplatesPath = "templates"
	}
	if cfg.StaticPath == "" {
		cfg.StaticPath = "static"
	}
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = "migrations"
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "Painel da Clínica"
	}
	if cfg.ClinicName == "" {
		cfg.ClinicName = cfg.SiteName
	}
	if cfg.CurrentYear == 0 {
		cfg.CurrentYear = time.Now().Year()
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.Session.CookieName == "" {
		cfg.Session.CookieName = "clinica_session"
	}
	if cfg.Session.LifetimeHours <= 0 {
		cfg.Session.LifetimeHours = 12
	}
	if cfg.RateLimit.LoginRPS <= 0 {
		cfg.RateLimit.LoginRPS = 0.2
	}
	if cfg.RateLimit.LoginBurst <= 0 {
		cfg.RateLimit.LoginBurst = 5
	}
	cfg.Metrics.Enabled = getBoolEnvOrDefault("METRICS_ENABLED", cfg.Metrics.Enabled)
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}

	if cfg.BaseURL == "" {
		return fmt.Errorf("BASE_URL não definida")
	}
	if isProduction && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return fmt.Errorf("em produção BASE_URL deve começar com https://")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return fmt.Errorf("parâmetros de conexão com o banco (DATABASE_DSN ou DB_HOST etc.) não definidos")
	}
	if cfg.Database.Host != "" {
		if cfg.Database.User == "" {
			return fmt.Errorf("DB_USER não definido para a conexão com o banco")
		}
		if cfg.Database.DBName == "" {
			return fmt.Errorf("DB_NAME não definido para a conexão com o banco")
		}
		if cfg.Database.Port == 0 {
			cfg.Database.Port = 3306
		}
	}
	if cfg.FirstAdmin.Email != "" && cfg.FirstAdmin.Password == "" {
		slog.Warn("FIRST_ADMIN_EMAIL definido sem FIRST_ADMIN_PASSWORD; o usuário só será promovido se já existir.")
	}
	return nil
}

func InitLogger(appEnv string) {
	var logger *slog.Logger
	logLevel := slog.LevelInfo

	if appEnv == "development" {
		logLevel = slog.LevelDebug
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}))
	} else {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: false,
		}))
	}
	slog.SetDefault(logger)
}
