// internal/access/session.go
package access

import "clinica-admin.com.br/internal/models"

// Session é o estado de sessão visto pelo núcleo de acesso. É montada pelo
// middleware e passada explicitamente; o núcleo nunca a altera.
type Session struct {
	User *models.User
	// Loading indica que há um usuário na sessão que ainda não foi resolvido.
	Loading bool
}

func (s Session) Authenticated() bool {
	return s.User != nil
}

func (s Session) Roles() models.RoleSet {
	return s.User.RoleSet()
}
