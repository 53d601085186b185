package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/stemsi/minilms-backend/internal/model"
)

// trans is the singleton English translator for validation errors.
var trans ut.Translator

// Setup registers the validator with English translations and the custom
// phone and gender tags on Gin's binding engine.
// Call once during application startup.
func Setup() {
	v, ok := binding.Validator.Engine().(*govalidator.Validate)
	if !ok {
		return
	}

	// Use JSON tag name for field names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl govalidator.FieldLevel) bool {
		return model.PhonePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("gender", func(fl govalidator.FieldLevel) bool {
		g := fl.Field().String()
		return g == "" || model.ValidGender(model.Gender(g))
	})

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v, trans)

	registerTranslation(v, "phone", "{0} must have 10 digits and start with 0")
	registerTranslation(v, "gender", "{0} must be one of Male, Female, Other")
}

func registerTranslation(v *govalidator.Validate, tag, text string) {
	_ = v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error { return ut.Add(tag, text, true) },
		func(ut ut.Translator, fe govalidator.FieldError) string {
			msg, err := ut.T(tag, fe.Field())
			if err != nil {
				return fe.Error()
			}
			return msg
		},
	)
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name to human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			if trans != nil {
				fields[fe.Field()] = fe.Translate(trans)
			} else {
				fields[fe.Field()] = fe.Error()
			}
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// Summary flattens a field map into one line ordered by field name.
func Summary(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "detail" {
			parts = append(parts, fields[k])
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", k, fields[k]))
	}
	return strings.Join(parts, "; ")
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
