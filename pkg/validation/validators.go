package validation

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Regex patterns
var (
	// Something, an @, something, a dot, something. No whitespace anywhere.
	contactEmailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// New returns a validator with the custom rules registered and field names
// reported by their json tag.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonTagName)
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("contact_email", ContactEmail)
	_ = v.RegisterValidation("single_line", SingleLine)
}

// ContactEmail validates an address with a local part, an @ and a dotted domain.
func ContactEmail(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true // required handles emptiness
	}
	return contactEmailRegex.MatchString(val)
}

// SingleLine rejects CR and LF. Names and project types end up in mail headers.
func SingleLine(fl validator.FieldLevel) bool {
	return !strings.ContainsAny(fl.Field().String(), "\r\n")
}

// IsEmail applies the contact_email rule to a bare string.
func IsEmail(s string) bool {
	return contactEmailRegex.MatchString(s)
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}
