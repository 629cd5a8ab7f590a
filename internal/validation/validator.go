package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	Validator = validator.New()
)

func ValidateStruct(s interface{}) error {
	return Validator.Struct(s)
}

// Message turns a validation error into the message shown to the user.
func Message(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "invalid request"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()))
	}
	return fmt.Sprintf("missing or invalid fields: %s", strings.Join(fields, ", "))
}
