// internal/access/names.go
package access

// UnknownRouteName é exibido quando o caminho não tem nome cadastrado.
const UnknownRouteName = "Página desconhecida"

type RouteName struct {
	Pattern string
	Name    string
}

type Names []RouteName

var DefaultNames = Names{
	{Pattern: "/home", Name: "Início"},
	{Pattern: "/dashboard", Name: "Dashboard"},
	{Pattern: "/clientes", Name: "Clientes"},
	{Pattern: "/clientes/novo", Name: "Cadastro de cliente"},
	{Pattern: "/clientes/{id}/editar", Name: "Edição de cliente"},
	{Pattern: "/agenda", Name: "Agenda"},
	{Pattern: "/agenda/{id}/excluir", Name: "Exclusão de agendamento"},
	{Pattern: "/financeiro", Name: "Financeiro"},
	{Pattern: "/relatorios", Name: "Relatórios"},
	{Pattern: "/permissions", Name: "Permissões"},
	{Pattern: "/permissions/{permissionName}", Name: "Detalhes da permissão"},
	{Pattern: "/usuarios", Name: "Usuários"},
	{Pattern: "/usuarios/{id}/editar", Name: "Edição de usuário"},
	{Pattern: "/perfil", Name: "Meu perfil"},
}

// DisplayName devolve o nome legível do caminho (igualdade exata primeiro).
func (n Names) DisplayName(p string) string {
	clean := normalizePath(p)
	for _, rn := range n {
		if normalizePath(rn.Pattern) == clean {
			return rn.Name
		}
	}
	for _, rn := range n {
		if matchPattern(rn.Pattern, clean) {
			return rn.Name
		}
	}
	return UnknownRouteName
}
