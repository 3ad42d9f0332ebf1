// Package validate expone una instancia compartida de go-playground/validator
// para los DTOs de la API.
package validate

import (
	"github.com/go-playground/validator/v10"
)

var v = validator.New(validator.WithRequiredStructEnabled())

// Struct valida s contra sus tags `validate`.
func Struct(s interface{}) error {
	return v.Struct(s)
}

// Errors traduce un error de validación a un mapa campo → regla violada,
// apto para la respuesta HTTP. Para errores que no son de validación devuelve nil.
func Errors(err error) map[string]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, ve := range verrs {
		out[ve.Field()] = ve.Tag()
	}
	return out
}
