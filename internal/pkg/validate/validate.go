package validate

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/callog-relay/internal/domain"
	"github.com/go-playground/validator/v10"
)

// v is the package-level singleton validator. Field names in messages are the
// JSON names clients send, not the Go field names.
var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

// Struct validates the given struct using its validate tags.
// Failures are returned wrapped in domain.ErrInvalidArgument.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), domain.ErrInvalidArgument)
	}
	return nil
}
