package domain

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Code identifies the kind of rule a field failed.
type Code string

const (
	CodeRequiredOrTooShort Code = "REQUIRED_OR_TOO_SHORT"
	CodeTooShort           Code = "TOO_SHORT"
	CodeInvalidURL         Code = "INVALID_URL"
)

// UsernamePrefix is prepended to every derived username.
const UsernamePrefix = "USER-"

const webURLTag = "weburl"

// webURLPattern accepts an optional http(s) scheme, a hostname with an
// alphabetic TLD or a dotted quad, then optional port, path, query and fragment.
var webURLPattern = regexp.MustCompile(`(?i)^(https?://)?` +
	`((([a-z\d]([a-z\d-]*[a-z\d])*)\.)+[a-z]{2,}|((\d{1,3}\.){3}\d{1,3}))` +
	`(:\d+)?` +
	`(/[-a-z\d%_.~+]*)*` +
	`(\?[;&a-z\d%_.~+=-]*)?` +
	`(#[-a-z\d_]*)?$`)

// FieldError is a single failed rule, keyed by field in FieldErrors.
type FieldError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

// FieldErrors maps a form field name to the rule it failed.
type FieldErrors map[string]FieldError

// Valid reports whether no field failed.
func (f FieldErrors) Valid() bool {
	return len(f) == 0
}

// Messages flattens the errors to field -> human readable message.
func (f FieldErrors) Messages() map[string]string {
	out := make(map[string]string, len(f))
	for field, fe := range f {
		out[field] = fe.Message
	}
	return out
}

type fieldRule struct {
	field   string
	code    Code
	message string
}

// fieldRules is keyed by the validator struct namespace of each tagged field.
var fieldRules = map[string]fieldRule{
	"UserRecord.Name": {
		field:   "name",
		code:    CodeRequiredOrTooShort,
		message: "Name is required and must be at least 3 characters",
	},
	"UserRecord.Username": {
		field:   "username",
		code:    CodeRequiredOrTooShort,
		message: "Username is required and must be at least 3 characters",
	},
	"UserRecord.Company.Name": {
		field:   "company",
		code:    CodeTooShort,
		message: "Company name must be at least 3 characters",
	},
	"UserRecord.Website": {
		field:   "website",
		code:    CodeInvalidURL,
		message: "Website must be a valid URL",
	},
}

var recordValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation(webURLTag, func(fl validator.FieldLevel) bool {
		return IsValidURL(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
})

// IsValidURL reports whether s matches the website pattern end to end.
func IsValidURL(s string) bool {
	return webURLPattern.MatchString(s)
}

// DeriveUsername builds the username assigned to a record in create mode.
func DeriveUsername(name string) string {
	return UsernamePrefix + strings.ReplaceAll(strings.ToLower(name), " ", "-")
}

// Validate checks a record against the form rules. It never fails; an empty
// result means the record may be submitted.
func Validate(rec UserRecord) FieldErrors {
	errs := FieldErrors{}

	err := recordValidator().Struct(rec)
	if err == nil {
		return errs
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs
	}

	for _, fe := range verrs {
		rule, ok := fieldRules[fe.StructNamespace()]
		if !ok {
			continue
		}
		if _, seen := errs[rule.field]; seen {
			continue
		}
		errs[rule.field] = FieldError{Code: rule.code, Message: rule.message}
	}
	return errs
}
