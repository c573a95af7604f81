package validator

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

func init() {
	// Register custom validation for UUID
	validate.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		if id, ok := fl.Field().Interface().(uuid.UUID); ok {
			return id != uuid.Nil
		}
		return false
	})

	// Report JSON names so messages line up with request bodies
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}

// ValidateStruct validates data and returns a field -> message map, or nil.
func ValidateStruct(data interface{}) map[string]string {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = message(fe)
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "uuid_required":
		return fmt.Sprintf("The %s field is required.", fe.Field())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must be at least %s characters.", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("The %s field must be at least %s.", fe.Field(), fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("The %s field must not be greater than %s characters.", fe.Field(), fe.Param())
		}
		return fmt.Sprintf("The %s field must not be greater than %s.", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("The %s field must be greater than %s.", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("The %s field must be at least %s.", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", fe.Field())
	case "email":
		return fmt.Sprintf("The %s field must be a valid email address.", fe.Field())
	default:
		return fmt.Sprintf("The %s field failed on the '%s' rule.", fe.Field(), fe.Tag())
	}
}
