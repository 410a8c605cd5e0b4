// internal/access/menu.go
package access

import "clinica-admin.com.br/internal/models"

type MenuEntry struct {
	Label string
	Icon  string
	Path  string
}

// DefaultMenu é a lista mestre do menu lateral.
var DefaultMenu = []MenuEntry{
	{Label: "Início", Icon: "home", Path: "/home"},
	{Label: "Dashboard", Icon: "dashboard", Path: "/dashboard"},
	{Label: "Clientes", Icon: "people", Path: "/clientes"},
	{Label: "Agenda", Icon: "calendar_month", Path: "/agenda"},
	{Label: "Financeiro", Icon: "payments", Path: "/financeiro"},
	{Label: "Relatórios", Icon: "bar_chart", Path: "/relatorios"},
	{Label: "Usuários", Icon: "manage_accounts", Path: "/usuarios"},
	{Label: "Permissões", Icon: "lock", Path: "/permissions"},
	{Label: "Meu perfil", Icon: "person", Path: "/perfil"},
}

// VisibleMenu filtra a lista mestre pelas funções do usuário, preservando a ordem.
// Sempre devolve um slice novo, nunca nil.
func VisibleMenu(master []MenuEntry, userRoles models.RoleSet, table Table) []MenuEntry {
	visible := make([]MenuEntry, 0, len(master))
	for _, entry := range master {
		if table.CanAccess(userRoles, entry.Path) {
			visible = append(visible, entry)
		}
	}
	return visible
}

// MenuFor compõe o menu para a sessão. Sessão ausente ou ainda carregando
// resulta em menu vazio.
func MenuFor(master []MenuEntry, sess Session, table Table) []MenuEntry {
	if sess.Loading || !sess.Authenticated() {
		return []MenuEntry{}
	}
	return VisibleMenu(master, sess.Roles(), table)
}
