// internal/access/table.go
package access

import (
	"path"
	"strings"

	"clinica-admin.com.br/internal/models"
)

// Requirement associa um padrão de rota às funções que podem acessá-la.
// Padrões aceitam segmentos parametrizados no formato {nome} ou :nome.
type Requirement struct {
	Pattern string
	Roles   []models.Role
}

// Table é a tabela estática de requisitos de rota. É a única fonte de verdade
// para o guard, o menu e a auditoria do roteador.
type Table []Requirement

var (
	staff    = []models.Role{models.RoleAdministrador, models.RoleUsuario}
	everyone = []models.Role{models.RoleAdministrador, models.RoleUsuario, models.RoleCliente}
	admins   = []models.Role{models.RoleAdministrador}
)

// DefaultTable. /perfil fica fora de propósito: qualquer usuário autenticado edita o próprio perfil.
var DefaultTable = Table{
	{Pattern: "/home", Roles: everyone},
	{Pattern: "/dashboard", Roles: staff},
	{Pattern: "/clientes", Roles: staff},
	{Pattern: "/clientes/novo", Roles: staff},
	{Pattern: "/clientes/{id}/editar", Roles: staff},
	{Pattern: "/agenda", Roles: everyone},
	{Pattern: "/agenda/{id}/excluir", Roles: staff},
	{Pattern: "/financeiro", Roles: admins},
	{Pattern: "/relatorios", Roles: admins},
	{Pattern: "/permissions", Roles: admins},
	{Pattern: "/permissions/{permissionName}", Roles: admins},
	{Pattern: "/usuarios", Roles: admins},
	{Pattern: "/usuarios/{id}/editar", Roles: admins},
}

// Lookup resolve as funções exigidas por um caminho: primeiro por igualdade
// exata, depois por casamento segmento a segmento com parâmetros.
// ok=false significa rota não mapeada (liberada para qualquer usuário autenticado).
func (t Table) Lookup(p string) (roles []models.Role, ok bool) {
	clean := normalizePath(p)
	for _, req := range t {
		if normalizePath(req.Pattern) == clean {
			return req.Roles, true
		}
	}
	segments := splitPath(clean)
	for _, req := range t {
		if matchSegments(splitPath(normalizePath(req.Pattern)), segments) {
			return req.Roles, true
		}
	}
	return nil, false
}

// Unmapped devolve os padrões que não têm entrada na tabela, na ordem recebida.
func (t Table) Unmapped(patterns []string) []string {
	var missing []string
	for _, p := range patterns {
		if _, ok := t.Lookup(p); !ok {
			missing = append(missing, p)
		}
	}
	return missing
}

// PatternsFor lista os padrões acessíveis a uma função, na ordem da tabela.
func (t Table) PatternsFor(role models.Role) []string {
	var patterns []string
	for _, req := range t {
		if HasAccess(models.NewRoleSet(role), req.Roles) {
			patterns = append(patterns, req.Pattern)
		}
	}
	return patterns
}

func normalizePath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

func splitPath(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func isParam(segment string) bool {
	if strings.HasPrefix(segment, ":") && len(segment) > 1 {
		return true
	}
	return strings.HasPrefix(segment, "{") && strings.HasSuffix(segment, "}") && len(segment) > 2
}

func matchSegments(pattern, segments []string) bool {
	if len(pattern) != len(segments) {
		return false
	}
	for i, seg := range pattern {
		if isParam(seg) {
			if segments[i] == "" {
				return false
			}
			continue
		}
		if seg != segments[i] {
			return false
		}
	}
	return true
}

// matchPattern casa um padrão isolado contra um caminho (usado pelos nomes de rota).
func matchPattern(pattern, p string) bool {
	return matchSegments(splitPath(normalizePath(pattern)), splitPath(normalizePath(p)))
}
