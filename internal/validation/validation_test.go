package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"clinica-admin.com.br/internal/models"
)

func TestValidateClientForm(t *testing.T) {
	valid := models.ClientForm{
		Name:      "Maria da Silva",
		CPF:       "529.982.247-25",
		Email:     "maria@exemplo.com.br",
		Phone:     "(11) 98765-4321",
		BirthDate: "1985-03-02",
	}
	assert.Nil(t, ValidateStruct(valid))

	invalid := valid
	invalid.CPF = "111.111.111-11"
	invalid.Phone = "123"
	invalid.BirthDate = "2999-01-01"
	errs := ValidateStruct(invalid)
	assert.Equal(t, "CPF inválido.", errs.Get("cpf"))
	assert.NotEmpty(t, errs.Get("phone"))
	assert.Equal(t, "Informe uma data válida que não esteja no futuro.", errs.Get("birth_date"))
	assert.Empty(t, errs.Get("name"))
}

func TestValidateRequiredUsesFormNames(t *testing.T) {
	errs := ValidateStruct(models.LoginForm{})
	assert.Equal(t, "Este campo é obrigatório.", errs.Get("email"))
	assert.Equal(t, "Este campo é obrigatório.", errs.Get("password"))
}

func TestValidateRoles(t *testing.T) {
	assert.Nil(t, ValidateStruct(models.UserRolesForm{Roles: []string{"Administrador", "Cliente"}}))
	assert.Nil(t, ValidateStruct(models.UserRolesForm{}))

	errs := ValidateStruct(models.UserRolesForm{Roles: []string{"Cliente", "root"}})
	assert.Equal(t, "Função desconhecida.", errs.Get("roles"))
}

func TestValidateAppointmentForm(t *testing.T) {
	errs := ValidateStruct(models.AppointmentForm{Title: "Consulta", Date: "02/03/2024", StartTime: "9h", EndTime: "10:00"})
	assert.Equal(t, "Formato esperado: AAAA-MM-DD.", errs.Get("date"))
	assert.Equal(t, "Formato esperado: HH:MM.", errs.Get("start_time"))
	assert.Empty(t, errs.Get("end_time"))
}

func TestValidateAppointmentPrice(t *testing.T) {
	form := models.AppointmentForm{Title: "Consulta", Date: "2024-03-02", StartTime: "09:00", EndTime: "10:00", Price: "150,00"}
	assert.Nil(t, ValidateStruct(form))

	form.Price = "cento e cinquenta"
	errs := ValidateStruct(form)
	assert.Equal(t, "Informe um valor em reais, por exemplo 150,00.", errs.Get("price"))
}

func TestPasswordChangeForm(t *testing.T) {
	errs := ValidateStruct(models.PasswordChangeForm{
		CurrentPassword:    "x",
		NewPassword:        "Nova#Senha1",
		ConfirmNewPassword: "Outra#Senha1",
	})
	assert.Equal(t, "Os valores não conferem.", errs.Get("confirm_new_password"))
}
