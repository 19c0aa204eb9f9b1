// Package validation checks store inputs and turns failures into apperr.ValidationError.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/aura-events/backend/internal/apperr"
	"github.com/aura-events/backend/internal/models"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(jsonName)
		_ = validate.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
			_, err := models.ParseDate(fl.Field().String())
			return err == nil
		})
	})
	return validate
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

// Struct validates v against its `validate` tags. It returns nil or an *apperr.ValidationError.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &apperr.ValidationError{Fields: make([]apperr.FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, apperr.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

// FromBindError converts a JSON decoding error into a field-level validation error when the
// failure can be attributed to one field (e.g. a string where a number was expected).
// It returns nil for structurally malformed bodies.
func FromBindError(err error) *apperr.ValidationError {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.Invalid(typeErr.Field, typeMessage(typeErr))
	}
	return nil
}

// TypeErrors decodes each member of the JSON object body into the matching field of the
// struct dst points to and reports every member whose value has the wrong type, in field
// order. encoding/json stops recording after the first such error, so this is how a body
// with several mistyped values gets all of them reported.
func TypeErrors(body []byte, dst any) []apperr.FieldError {
	var members map[string]json.RawMessage
	if json.Unmarshal(body, &members) != nil {
		return nil
	}
	t := reflect.TypeOf(dst)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}
	var out []apperr.FieldError
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := jsonName(f)
		raw, ok := members[name]
		if !ok || name == "" || !f.IsExported() {
			continue
		}
		err := json.Unmarshal(raw, reflect.New(f.Type).Interface())
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			typeErr.Field = name
			out = append(out, apperr.FieldError{Field: name, Message: typeMessage(typeErr)})
		}
	}
	return out
}

func message(fe validator.FieldError) string {
	label := labels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Invalid email format"
	case "uuid":
		return "Invalid UUID for " + fe.Field()
	case "calendardate":
		return "Invalid date format"
	case "min":
		if fe.Param() == "0" {
			return label + " must be non-negative"
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	}
	return label + " is invalid"
}

func typeMessage(e *json.UnmarshalTypeError) string {
	label := labels[e.Field]
	if label == "" {
		label = e.Field
	}
	switch e.Type.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64:
		return label + " must be an integer"
	case reflect.Float32, reflect.Float64:
		return label + " must be a number"
	case reflect.String:
		return label + " must be a string"
	}
	return label + " has the wrong type"
}

var labels = map[string]string{
	"name":              "Name",
	"description":       "Description",
	"contactEmail":      "Contact email",
	"org_id":            "org_id",
	"event_id":          "event_id",
	"date":              "Date",
	"location":          "Location",
	"category":          "Category",
	"type":              "Type",
	"price":             "Price",
	"quantityAvailable": "Quantity",
}
