package validator

import (
	"errors"

	"clinic/internal/tenant"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// orgid accepts the same identifiers the tenant resolver does.
	_ = validate.RegisterValidation("orgid", func(fl validator.FieldLevel) bool {
		_, err := tenant.ParseOrgID(fl.Field().String())
		return err == nil
	})
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string)
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}
