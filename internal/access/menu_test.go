package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clinica-admin.com.br/internal/models"
)

func menuPaths(entries []MenuEntry) []string {
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	return paths
}

func TestVisibleMenuForCliente(t *testing.T) {
	menu := VisibleMenu(DefaultMenu, models.NewRoleSet(models.RoleCliente), DefaultTable)
	assert.Equal(t, []string{"/home", "/agenda", "/perfil"}, menuPaths(menu))
}

func TestVisibleMenuForUsuario(t *testing.T) {
	menu := VisibleMenu(DefaultMenu, models.NewRoleSet(models.RoleUsuario), DefaultTable)
	assert.Equal(t, []string{"/home", "/dashboard", "/clientes", "/agenda", "/perfil"}, menuPaths(menu))
}

func TestVisibleMenuForAdministradorKeepsMasterOrder(t *testing.T) {
	menu := VisibleMenu(DefaultMenu, models.NewRoleSet(models.RoleAdministrador), DefaultTable)
	assert.Equal(t, DefaultMenu, menu)
}

func TestVisibleMenuIsIdempotent(t *testing.T) {
	roles := models.NewRoleSet(models.RoleUsuario, models.RoleCliente)
	first := VisibleMenu(DefaultMenu, roles, DefaultTable)
	second := VisibleMenu(DefaultMenu, roles, DefaultTable)
	assert.Equal(t, first, second)

	// slices independentes: alterar um não afeta o outro nem a lista mestre
	first[0].Label = "alterado"
	assert.NotEqual(t, first[0].Label, second[0].Label)
	assert.Equal(t, "Início", DefaultMenu[0].Label)
}

func TestMenuForLoadingOrAbsentSession(t *testing.T) {
	admin := &models.User{ID: 1, Roles: []models.Role{models.RoleAdministrador}}

	full := MenuFor(DefaultMenu, Session{User: admin}, DefaultTable)
	assert.NotEmpty(t, full)

	loading := MenuFor(DefaultMenu, Session{User: admin, Loading: true}, DefaultTable)
	assert.NotNil(t, loading)
	assert.Empty(t, loading)

	absent := MenuFor(DefaultMenu, Session{}, DefaultTable)
	assert.NotNil(t, absent)
	assert.Empty(t, absent)

	// troca de usuário: nada do menu anterior vaza
	cliente := &models.User{ID: 2, Roles: []models.Role{models.RoleCliente}}
	next := MenuFor(DefaultMenu, Session{User: cliente}, DefaultTable)
	assert.Equal(t, []string{"/home", "/agenda", "/perfil"}, menuPaths(next))
}
