// internal/models/role.go
package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Role é uma classe de privilégio do usuário. Só valem os valores de AllRoles.
type Role string

const (
	RoleAdministrador Role = "Administrador"
	RoleUsuario       Role = "Usuário"
	RoleCliente       Role = "Cliente"
)

// AllRoles define a ordem canônica das funções (exibição e ordenação).
var AllRoles = []Role{RoleAdministrador, RoleUsuario, RoleCliente}

var ErrUnknownRole = errors.New("função desconhecida")

// ParseRole valida a string na fronteira do modelo de dados (banco, formulários, URL).
func ParseRole(s string) (Role, error) {
	trimmed := strings.TrimSpace(s)
	for _, r := range AllRoles {
		if string(r) == trimmed {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

func (r Role) String() string { return string(r) }

// Description é o texto exibido nas telas de permissões.
func (r Role) Description() string {
	switch r {
	case RoleAdministrador:
		return "Acesso total ao painel, inclusive financeiro e permissões"
	case RoleUsuario:
		return "Equipe da clínica: clientes e agenda"
	case RoleCliente:
		return "Cliente da clínica: consulta a agenda"
	}
	return ""
}

func roleRank(r Role) int {
	for i, known := range AllRoles {
		if known == r {
			return i
		}
	}
	return len(AllRoles)
}

// RoleSet é o conjunto de funções de um usuário.
type RoleSet map[Role]struct{}

func NewRoleSet(roles ...Role) RoleSet {
	set := make(RoleSet, len(roles))
	for _, r := range roles {
		set[r] = struct{}{}
	}
	return set
}

func (s RoleSet) Has(r Role) bool {
	_, ok := s[r]
	return ok
}

func (s RoleSet) Len() int { return len(s) }

// Sorted devolve as funções na ordem de AllRoles.
func (s RoleSet) Sorted() []Role {
	out := make([]Role, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return roleRank(out[i]) < roleRank(out[j]) })
	return out
}

// RoleRecord é uma linha da tabela roles.
type RoleRecord struct {
	ID          int64     `json:"id"`
	Name        Role      `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
