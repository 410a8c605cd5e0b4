// internal/validation/validation.go
package validation

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"clinica-admin.com.br/internal/auth"
	"clinica-admin.com.br/internal/models"
)

var validate *validator.Validate
var alphaSpaceRegex = regexp.MustCompile(`^[\p{L}\s'-]+$`)

func init() {
	validate = validator.New()
	validate.RegisterValidation("complex_password", validateComplexPassword)
	validate.RegisterValidation("valid_phone", validatePhone)
	validate.RegisterValidation("alpha_space", validateAlphaSpace)
	validate.RegisterValidation("cpf", validateCPF)
	validate.RegisterValidation("past_date", validatePastDate)
	validate.RegisterValidation("valid_role", validateRole)
	validate.RegisterValidation("brl_amount", validateBRLAmount)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ValidateStruct devolve nil quando não há erros.
func ValidateStruct(data interface{}) url.Values {
	err := validate.Struct(data)
	if err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) url.Values {
	errorsMap := url.Values{}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fieldErr := range validationErrs {
			errorsMap.Add(fieldName(fieldErr), getErrorMessage(fieldErr))
		}
	} else {
		errorsMap.Add("general", "Erro de validação: "+err.Error())
	}
	return errorsMap
}

// fieldName remove o índice de campos de lista: roles[1] -> roles.
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if i := strings.IndexByte(name, '['); i > 0 {
		return name[:i]
	}
	return name
}

func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "Este campo é obrigatório."
	case "email":
		return "Informe um endereço de email válido."
	case "url":
		return "Informe uma URL válida."
	case "min":
		return fmt.Sprintf("Tamanho mínimo deste campo: %s caracteres.", err.Param())
	case "max":
		return fmt.Sprintf("Tamanho máximo deste campo: %s caracteres.", err.Param())
	case "eqfield":
		return "Os valores não conferem."
	case "numeric":
		return "Informe apenas números."
	case "datetime":
		return fmt.Sprintf("Formato esperado: %s.", humanLayout(err.Param()))
	case "complex_password":
		return "A senha deve conter letras, números e símbolos."
	case "valid_phone":
		return "Informe um telefone válido com DDD, por exemplo (11) 98765-4321."
	case "alpha_space":
		return "Use apenas letras, espaços, apóstrofos e hífens."
	case "cpf":
		return "CPF inválido."
	case "past_date":
		return "Informe uma data válida que não esteja no futuro."
	case "valid_role":
		return "Função desconhecida."
	case "brl_amount":
		return "Informe um valor em reais, por exemplo 150,00."
	default:
		return fmt.Sprintf("Valor inválido para o campo %s (regra: %s).", err.Field(), err.Tag())
	}
}

func humanLayout(layout string) string {
	switch layout {
	case "2006-01-02":
		return "AAAA-MM-DD"
	case "15:04":
		return "HH:MM"
	}
	return layout
}

func validateAlphaSpace(fl validator.FieldLevel) bool {
	return alphaSpaceRegex.MatchString(fl.Field().String())
}

func ValidateAlphaSpace(value string) bool {
	return alphaSpaceRegex.MatchString(value)
}

func validateComplexPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if password == "" {
		return true
	}
	return auth.IsPasswordComplex(password)
}

func validatePhone(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if phone == "" {
		return false
	}
	return auth.ValidatePhone(phone)
}

func validateCPF(fl validator.FieldLevel) bool {
	return auth.ValidateCPF(fl.Field().String())
}

func validatePastDate(fl validator.FieldLevel) bool {
	date := fl.Field().String()
	if date == "" {
		return true
	}
	return auth.IsPastDate(date)
}

func validateRole(fl validator.FieldLevel) bool {
	_, err := models.ParseRole(fl.Field().String())
	return err == nil
}

func validateBRLAmount(fl validator.FieldLevel) bool {
	_, err := models.ParseBRLAmount(fl.Field().String())
	return err == nil
}
