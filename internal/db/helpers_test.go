// internal/db/helpers_test.go
package db

import (
	"database/sql"
	"fmt"
	"os"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/require"

	"clinica-admin.com.br/internal/config"
)

// openTestStore conecta ao banco indicado em TEST_DATABASE_DSN, aplica as
// migrações e limpa as tabelas. Sem a variável o teste é ignorado.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN não definido, teste de integração ignorado")
	}
	full, err := BuildDSN(config.DatabaseConfig{DSN: dsn})
	require.NoError(t, err)
	parsed, err := mysql.ParseDSN(full)
	require.NoError(t, err)

	conn, err := sql.Open("mysql", full)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, conn.Ping())
	require.NoError(t, RunMigrations(conn, parsed.DBName, "../../migrations"))

	clearTestDBTables(t, conn, "appointments", "clients", "user_roles", "users")
	store := NewStore(conn)
	require.NoError(t, store.SeedRoles())
	return store
}

func clearTestDBTables(t *testing.T, conn *sql.DB, tableNames ...string) {
	t.Helper()
	for _, table := range tableNames {
		if _, err := conn.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Fatalf("falha ao limpar a tabela %s: %v", table, err)
		}
	}
}
