package domain

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

// slugRegexp: буквы, цифры, дефис и подчеркивание.
var slugRegexp = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

// NewValidator создает валидатор с зарегистрированным правилом "slug",
// которое используется в тегах DTO для username и слагов каталога.
func NewValidator() *validator.Validate {
	v := validator.New()
	// Регистрация не может вернуть ошибку для корректной функции, но
	// сигнатура ее требует.
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugRegexp.MatchString(fl.Field().String())
	})
	return v
}

// ValidateYear проверяет, что год выпуска произведения не находится
// в будущем. Статическим тегом валидатора это не выразить: граница
// зависит от текущей даты.
func ValidateYear(year int) error {
	if current := time.Now().Year(); year > current {
		return fmt.Errorf("year %d is in the future (current year is %d)", year, current)
	}
	return nil
}
