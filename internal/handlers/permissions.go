// internal/handlers/permissions.go
package handlers

import (
	"clinica-admin.com.br/internal/access"
	"clinica-admin.com.br/internal/models"
)

// RouteAccess é uma rota liberada para uma função, com o nome de exibição.
type RouteAccess struct {
	Pattern string
	Name    string
}

// PermissionCategory descreve uma função e o que ela alcança no painel.
type PermissionCategory struct {
	Role        models.Role
	Description string
	Routes      []RouteAccess
	Users       []*models.User
}

// PermissionCategories deriva as categorias da própria política de acesso,
// sem uma segunda tabela.
func PermissionCategories(policy *access.Policy) []PermissionCategory {
	out := make([]PermissionCategory, 0, len(models.AllRoles))
	for _, role := range models.AllRoles {
		out = append(out, PermissionCategoryFor(policy, role))
	}
	return out
}

// PermissionCategoryFor monta a categoria de uma função já validada.
func PermissionCategoryFor(policy *access.Policy, role models.Role) PermissionCategory {
	patterns := policy.Table.PatternsFor(role)
	routes := make([]RouteAccess, 0, len(patterns))
	for _, p := range patterns {
		routes = append(routes, RouteAccess{Pattern: p, Name: policy.Names.DisplayName(p)})
	}
	return PermissionCategory{Role: role, Description: role.Description(), Routes: routes}
}
