// internal/models/client.go
package models

import "time"

type Client struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CPF       string    `json:"cpf"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	BirthDate string    `json:"birth_date"`
	Address   string    `json:"address"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ClientForm struct {
	Name      string `form:"name" validate:"required,alpha_space,max=120"`
	CPF       string `form:"cpf" validate:"required,cpf"`
	Email     string `form:"email" validate:"omitempty,email,max=255"`
	Phone     string `form:"phone" validate:"required,valid_phone"`
	BirthDate string `form:"birth_date" validate:"omitempty,datetime=2006-01-02,past_date"`
	Address   string `form:"address" validate:"max=255"`
	Notes     string `form:"notes" validate:"max=2000"`
}
