// internal/db/db.go
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"clinica-admin.com.br/internal/config"
)

var (
	ErrNotFound       = errors.New("registro não encontrado")
	ErrDuplicateEmail = errors.New("já existe um usuário com este email")
	ErrDuplicateCPF   = errors.New("já existe um cliente com este CPF")
	errNotInitialized = errors.New("banco de dados não inicializado")
)

// Store reúne as consultas do painel sobre uma conexão MySQL/MariaDB.
type Store struct {
	DB *sql.DB
}

func NewStore(conn *sql.DB) *Store {
	return &Store{DB: conn}
}

func (s *Store) ready() error {
	if s == nil || s.DB == nil {
		return errNotInitialized
	}
	return nil
}

func RunMigrations(dbConn *sql.DB, dbName, migrationsPath string) error {
	driverInstance, err := migratemysql.WithInstance(dbConn, &migratemysql.Config{
		DatabaseName: dbName,
	})
	if err != nil {
		return fmt.Errorf("não foi possível criar o driver de migrações mysql: %w", err)
	}

	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		return fmt.Errorf("caminho de migrações inválido '%s': %w", migrationsPath, err)
	}
	migrationsURL := "file://" + filepath.ToSlash(absPath)

	m, err := migrate.NewWithDatabaseInstance(migrationsURL, "mysql", driverInstance)
	if err != nil {
		return fmt.Errorf("erro ao criar a instância do migrate (verifique o caminho '%s'): %w", migrationsURL, err)
	}

	slog.Info("Aplicando migrações...", "path", migrationsURL)
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, dirty, verr := m.Version()
		if verr != nil {
			slog.Error("Erro ao obter o estado da migração após falha no Up", "migration_error", err, "status_error", verr)
		} else {
			slog.Error("Erro ao aplicar migrações", "current_version", version, "dirty_state", dirty, "error_up", err)
		}
		return fmt.Errorf("erro ao aplicar migrações: %w", err)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		slog.Info("Migrações: nenhuma alteração.")
	} else {
		slog.Info("Migrações aplicadas com sucesso.")
	}
	return nil
}

// BuildDSN monta o DSN do go-sql-driver a partir da configuração.
// parseTime e multiStatements são sempre ligados (o segundo é exigido pelas migrações).
// utf8mb4 só é aplicado ao montar por partes; um DATABASE_DSN mantém o próprio charset.
func BuildDSN(dbCfg config.DatabaseConfig) (string, error) {
	var mc *mysql.Config
	if dbCfg.DSN != "" {
		parsed, err := mysql.ParseDSN(dbCfg.DSN)
		if err != nil {
			return "", fmt.Errorf("DATABASE_DSN inválido: %w", err)
		}
		mc = parsed
	} else if dbCfg.Host != "" && dbCfg.User != "" && dbCfg.DBName != "" {
		mc = mysql.NewConfig()
		mc.User = dbCfg.User
		mc.Passwd = dbCfg.Password
		mc.Net = "tcp"
		mc.Addr = fmt.Sprintf("%s:%d", dbCfg.Host, dbCfg.Port)
		mc.DBName = dbCfg.DBName
		if err := mc.Apply(mysql.Charset("utf8mb4", "")); err != nil {
			return "", fmt.Errorf("não foi possível definir o charset: %w", err)
		}
	} else {
		return "", fmt.Errorf("parâmetros insuficientes: DSN ou Host+User+DBName devem estar definidos")
	}
	mc.ParseTime = true
	mc.MultiStatements = true
	mc.Loc = time.Local
	return mc.FormatDSN(), nil
}

// InitDB abre a conexão, aplica migrações e garante as funções padrão.
func InitDB(appConfig *config.Config) (*sql.DB, error) {
	dsn, err := BuildDSN(appConfig.Database)
	if err != nil {
		return nil, err
	}
	slog.Info("Conectando ao MySQL", "dsn", redactDSN(dsn))

	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("erro ao abrir conexão com o MySQL: %w", err)
	}
	conn.SetConnMaxLifetime(time.Minute * 3)
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(10)

	if err = conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("erro ao conectar ao MySQL (ping falhou): %w", err)
	}
	slog.Info("Conexão com o MySQL estabelecida.")

	dbName := appConfig.Database.DBName
	if dbName == "" {
		if parsed, perr := mysql.ParseDSN(dsn); perr == nil {
			dbName = parsed.DBName
		}
	}
	if err = RunMigrations(conn, dbName, appConfig.Database.MigrationsPath); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("erro ao executar migrações: %w", err)
	}

	store := NewStore(conn)
	if err = store.SeedRoles(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	slog.Info("Banco de dados inicializado (migrações e dados iniciais).")
	return conn, nil
}

func redactDSN(dsn string) string {
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "(dsn inválido)"
	}
	if mc.Passwd != "" {
		mc.Passwd = "****"
	}
	return mc.FormatDSN()
}

// isDuplicateKey reconhece o erro 1062 do MySQL e informa se a mensagem cita a chave.
func isDuplicateKey(err error, key string) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return key == "" || strings.Contains(strings.ToLower(mysqlErr.Message), strings.ToLower(key))
	}
	return false
}
