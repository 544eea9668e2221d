package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator caches struct metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// email accepts single-label hosts such as localhost; registrations need a
	// dotted domain with a real top-level label.
	if err := v.RegisterValidation("email_domain", func(fl validator.FieldLevel) bool {
		local, domain, ok := cutLast(fl.Field().String(), "@")
		return ok && len(local) <= maxLocalPartLength && isValidDomain(strings.ToLower(domain))
	}); err != nil {
		panic(err)
	}

	return v
}

func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}
