package middleware

import (
	"errors"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	clinicvalidator "github.com/jwalitptl/clinic-api/pkg/validator"
)

// RegisterValidators installs the custom tags (such as "slot") and JSON
// field naming on gin's binding engine. Call it once before serving.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected gin validator engine")
	}
	clinicvalidator.Register(v)
	return nil
}
