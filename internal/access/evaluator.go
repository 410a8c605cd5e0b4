// internal/access/evaluator.go
package access

import "clinica-admin.com.br/internal/models"

// HasAccess decide o acesso: verdadeiro se a rota não exige funções ou se há
// interseção entre as funções do usuário e as exigidas. Função pura.
func HasAccess(userRoles models.RoleSet, required []models.Role) bool {
	if len(required) == 0 {
		return true
	}
	if len(userRoles) == 0 {
		return false
	}
	for _, r := range required {
		if userRoles.Has(r) {
			return true
		}
	}
	return false
}

// CanAccess combina Lookup e HasAccess para um caminho concreto.
func (t Table) CanAccess(userRoles models.RoleSet, p string) bool {
	required, _ := t.Lookup(p)
	return HasAccess(userRoles, required)
}
