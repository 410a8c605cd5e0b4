// internal/models/appointment.go
package models

import "time"

type Appointment struct {
	ID         string    `json:"id"`
	ClientID   *int64    `json:"client_id,omitempty"`
	ClientName string    `json:"client_name,omitempty"`
	Title      string    `json:"title"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	PriceCents int64     `json:"price_cents"`
	Notes      string    `json:"notes"`
	CreatedBy  int64     `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

type AppointmentForm struct {
	Title     string `form:"title" validate:"required,max=160"`
	ClientID  string `form:"client_id" validate:"omitempty,numeric"`
	Date      string `form:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `form:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `form:"end_time" validate:"required,datetime=15:04"`
	Price     string `form:"price" validate:"omitempty,brl_amount"`
	Notes     string `form:"notes" validate:"max=2000"`
}
