// internal/models/user.go
package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	AvatarURL    *string   `json:"avatar_url,omitempty"`
	PasswordHash string    `json:"-"`
	Roles        []Role    `json:"roles"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RoleSet monta o conjunto de funções do usuário; nil-safe.
func (u *User) RoleSet() RoleSet {
	if u == nil {
		return NewRoleSet()
	}
	return NewRoleSet(u.Roles...)
}

// DisplayName devolve o nome ou, na falta dele, o email.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type ProfileUpdateForm struct {
	Name      string `form:"name" validate:"required,alpha_space,max=120"`
	AvatarURL string `form:"avatar_url" validate:"omitempty,url,max=500"`
}

type PasswordChangeForm struct {
	CurrentPassword    string `form:"current_password" validate:"required"`
	NewPassword        string `form:"new_password" validate:"required,min=8,complex_password"`
	ConfirmNewPassword string `form:"confirm_new_password" validate:"required,eqfield=NewPassword"`
}

// UserRolesForm é enviado pela tela de administração de usuários.
type UserRolesForm struct {
	Roles []string `form:"roles" validate:"dive,valid_role"`
}
