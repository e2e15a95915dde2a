package services

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"

	"seatdesk/internal/models"
)

var (
	validate   *validator.Validate
	translator ut.Translator

	notBlankTag   = "notblank"
	permissionTag = "permission"

	// fieldLabels names fields in messages where the JSON name reads poorly.
	fieldLabels = map[string]string{
		"phone":       "Phone number",
		"permissions": "Permissions",
	}
)

func init() {
	validate = validator.New()

	english := en.New()
	uni := ut.New(english, english)
	translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	_ = validate.RegisterValidation(permissionTag, permissionValidation)

	noop := func(ut.Translator) error { return nil }
	for _, tag := range []string{notBlankTag, permissionTag} {
		_ = validate.RegisterTranslation(tag, translator, noop, translateCustom)
	}
}

func translateCustom(_ ut.Translator, fe validator.FieldError) string {
	label := fe.Field()
	if custom, ok := fieldLabels[label]; ok {
		label = custom
	}
	switch fe.Tag() {
	case notBlankTag:
		return label + " must be a non-empty string if provided"
	case permissionTag:
		return "Unknown permission: " + fe.Value().(string)
	}
	return label + " is invalid"
}

func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func permissionValidation(fl validator.FieldLevel) bool {
	raw, ok := fl.Field().Interface().(string)
	return ok && IsKnownPermission(raw)
}

// Validate runs struct tags on input and turns the first failure into a 400.
func Validate(input interface{}) error {
	err := validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return ErrBadRequest(fieldErrs[0].Translate(translator))
	}
	return errors.Wrap(err, "validate")
}

// trimmed returns nil for a nil or exactly empty string and the trimmed
// value otherwise.
func trimmed(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	out := strings.TrimSpace(*value)
	return &out
}

// emptyAsNil drops exactly empty strings but keeps whitespace so that
// notblank can reject it.
func emptyAsNil(value *string) *string {
	if value == nil || *value == "" {
		return nil
	}
	return value
}

func missingDate(d *models.Date) bool {
	return d == nil || d.IsZero()
}
