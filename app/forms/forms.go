// Package forms binds and validates submitted HTML forms.
package forms

import (
	"reflect"
	"strings"

	"yatube/app/models"

	"github.com/go-playground/validator/v10"
)

// NonField collects errors that belong to the form as a whole.
const NonField = "__all__"

const (
	msgRequired     = "Обязательное поле."
	msgInvalidValue = "Введите правильное значение."
	msgBadChoice    = "Выберите корректный вариант. Вашего варианта нет среди допустимых значений."
	msgNotImage     = "Загрузите правильное изображение. Файл, который вы загрузили, поврежден или не является изображением."
	msgTooLong      = "Слишком длинное значение."
	msgTooShort     = "Слишком короткое значение."
	msgMismatch     = "Введенные пароли не совпадают."
	msgUsernameUsed = "Пользователь с таким именем уже существует."
	msgBadLogin     = "Пожалуйста, введите правильные имя пользователя и пароль."
	msgEmail        = "Введите правильный адрес электронной почты."
)

// Errors maps a field name to its messages.
type Errors map[string][]string

func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Get returns the first message for field, or "".
func (e Errors) Get(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

func (e Errors) Any() bool {
	return len(e) > 0
}

var validate = newValidator()

// newValidator reports fields under their form tag name.
func newValidator() *validator.Validate {
	v := models.NewValidator()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bind runs struct-tag validation and records a message per failing field.
func bind(form interface{}, errs Errors) {
	err := validate.Struct(form)
	if err == nil {
		return
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		errs.Add(NonField, err.Error())
		return
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgRequired
	case "max", "maxbytes":
		return msgTooLong
	case "min":
		return msgTooShort
	case "email":
		return msgEmail
	case "eqfield":
		return msgMismatch
	default:
		return msgInvalidValue
	}
}
