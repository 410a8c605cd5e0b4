// internal/access/decision.go
package access

import "clinica-admin.com.br/internal/models"

// Outcome é o estado de uma tentativa de navegação.
type Outcome int

const (
	OutcomeUnauthenticated Outcome = iota
	OutcomeAuthorized
	OutcomeUnauthorized
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnauthenticated:
		return "unauthenticated"
	case OutcomeAuthorized:
		return "authorized"
	case OutcomeUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Decision carrega o necessário para a tela de acesso negado.
type Decision struct {
	Outcome   Outcome
	Path      string
	RouteName string
	Mapped    bool
	Required  []models.Role
	Held      []models.Role
}

// Policy agrupa a tabela de requisitos, os nomes de rota e o menu mestre.
type Policy struct {
	Table Table
	Names Names
	Menu  []MenuEntry
}

// DefaultPolicy é a política estática do painel.
var DefaultPolicy = &Policy{Table: DefaultTable, Names: DefaultNames, Menu: DefaultMenu}

// Decide avalia uma tentativa de navegação: autenticação primeiro, depois
// autorização. Não tem efeitos colaterais.
func (p *Policy) Decide(sess Session, path string) Decision {
	return p.DecideRoute(sess, path, path)
}

// DecideRoute é Decide com os requisitos resolvidos pelo padrão registrado no
// roteador ("/usuarios/{id}/editar") e não pelo caminho decodificado, que pode
// ganhar segmentos extras com %2F. path aparece apenas na decisão.
func (p *Policy) DecideRoute(sess Session, pattern, path string) Decision {
	if pattern == "" {
		pattern = path
	}
	d := Decision{Path: path, RouteName: p.Names.DisplayName(pattern)}
	if !sess.Authenticated() {
		d.Outcome = OutcomeUnauthenticated
		return d
	}
	required, mapped := p.Table.Lookup(pattern)
	held := sess.Roles()
	d.Mapped = mapped
	d.Required = append([]models.Role(nil), required...)
	d.Held = held.Sorted()
	if HasAccess(held, required) {
		d.Outcome = OutcomeAuthorized
	} else {
		d.Outcome = OutcomeUnauthorized
	}
	return d
}

func (p *Policy) MenuFor(sess Session) []MenuEntry {
	return MenuFor(p.Menu, sess, p.Table)
}
