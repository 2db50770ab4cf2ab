package api

import (
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validationsOnce sync.Once

// registerValidations installs the custom binding rules used by the
// request DTOs.
func registerValidations() {
	validationsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		// A natural person's name needs at least a given name and a
		// surname to be screenable.
		_ = v.RegisterValidation("nombre_completo", func(fl validator.FieldLevel) bool {
			return len(strings.Fields(fl.Field().String())) >= 2
		})
	})
}
