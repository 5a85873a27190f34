package customvalidator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	iso8601date "github.com/jecitDev/jec-salesgrid/pkg/ISO8601date"
)

var (
	emailRegex = regexp.MustCompile(`^[\w.-]+@([\w-]+\.)+[\w-]{2,4}$`)
	phoneRegex = regexp.MustCompile(`^[0-9+\s-]{8,16}$`)
)

type CustomValidator struct {
	Validator *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	valCustom := validator.New()
	valCustom.RegisterCustomTypeFunc(validateTime, time.Time{})
	valCustom.RegisterTagNameFunc(jsonTagName)
	valCustom.RegisterValidation("crmemail", validateEmail)
	valCustom.RegisterValidation("crmphone", validatePhone)
	valCustom.RegisterValidation("isodate", validateDate)
	valCustom.RegisterValidation("ISO8601date", validateDateTimeIso8601)
	return &CustomValidator{Validator: valCustom}
}

// IsEmail reports whether s is an address the CRM accepts
func IsEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// IsPhone reports whether s is a phone number the CRM accepts
func IsPhone(s string) bool {
	return phoneRegex.MatchString(s)
}

func validateEmail(fl validator.FieldLevel) bool {
	return IsEmail(fl.Field().String())
}

func validatePhone(fl validator.FieldLevel) bool {
	return IsPhone(fl.Field().String())
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := iso8601date.ParseDate(fl.Field().String())
	return err == nil
}

func validateDateTimeIso8601(fl validator.FieldLevel) bool {
	_, err := iso8601date.Parse(fl.Field().String())
	return err == nil
}

// validateTime maps zero and pre-epoch times to nil so that "required" rejects them
func validateTime(field reflect.Value) interface{} {
	if timeVal, ok := field.Interface().(time.Time); ok {
		minTime := time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
		if timeVal.After(minTime) {
			return timeVal
		}
	}
	return nil
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.Validator.Struct(i)
}

// Messages renders validation errors as one human readable message per field.
// Errors that are not validation errors yield their own text.
func Messages(err error) []string {
	if err == nil {
		return nil
	}

	var castedObject validator.ValidationErrors
	if !errors.As(err, &castedObject) {
		return []string{err.Error()}
	}

	message := make([]string, 0, len(castedObject))
	for _, fe := range castedObject {
		switch fe.Tag() {
		case "required":
			message = append(message, fmt.Sprintf("%s is required", fe.Field()))
		case "email", "crmemail":
			message = append(message, fmt.Sprintf("%s is not valid email", fe.Field()))
		case "crmphone":
			message = append(message, fmt.Sprintf("%s is not valid phone number", fe.Field()))
		case "gt":
			message = append(message, fmt.Sprintf("%s value must be greater than %s", fe.Field(), fe.Param()))
		case "gte":
			message = append(message, fmt.Sprintf("%s value must be greater than or equal to %s", fe.Field(), fe.Param()))
		case "lte":
			message = append(message, fmt.Sprintf("%s value must be lower than %s", fe.Field(), fe.Param()))
		case "isodate":
			message = append(message, fmt.Sprintf("%s value must be date (YYYY-MM-DD)", fe.Field()))
		case "ISO8601date":
			message = append(message, fmt.Sprintf("%s value must be ISO8601 date (YYYY-MM-DDTHH:mm:ssZ)", fe.Field()))
		default:
			message = append(message, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return message
}
