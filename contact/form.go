// Package contact talks to the site backend: the health probe and contact-form submission.
// Forms are checked locally with the same rules the backend applies, so an invalid form
// never costs a network round trip.
package contact

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Services accepted by the backend, in display order.
var services = []string{
	"Website Designing",
	"Notes",
	"Translation",
	"Logo Design",
	"Counselling",
}

// Services returns the service names a Form may select.
func Services() []string {
	return slices.Clone(services)
}

// Form is a contact-form submission.
type Form struct {
	Name    string `json:"name" validate:"required,min=2,max=50"`
	Email   string `json:"email" validate:"required,email"`
	Service string `json:"service" validate:"required,service"`
	Message string `json:"message" validate:"required,min=10,max=500"`
}

// Normalize trims surrounding whitespace from every field.
func (f *Form) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Email = strings.TrimSpace(f.Email)
	f.Service = strings.TrimSpace(f.Service)
	f.Message = strings.TrimSpace(f.Message)
}

// Validator wraps go-playground/validator with the form rules.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a Validator with the service rule registered and JSON field names
// reported in errors.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)

	if err := v.RegisterValidation("service", validateService); err != nil {
		panic(fmt.Sprintf("contact: register service validation: %v", err))
	}
	return &Validator{validate: v}
}

// Validate checks i and returns a *ValidationError listing every failed field.
func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

// ValidationError lists the fields a submission failed on.
type ValidationError struct {
	Errors []FieldError `json:"errors"`

	// cause is the backend rejection when the errors came from the server.
	cause error
}

// Error entry fields as the backend's request validator writes them.
const (
	fieldErrorType     = "field"
	fieldErrorLocation = "body"
)

// FieldError represents a validation error for a specific field.
// On the wire it is a request-validator entry: {type, value, msg, path, location}.
type FieldError struct {
	Type     string `json:"type,omitempty"`
	Value    any    `json:"value"`
	Message  string `json:"msg"`
	Field    string `json:"path"`
	Location string `json:"location,omitempty"`
}

// UnmarshalJSON also accepts the older {field, message} entry shape.
func (fe *FieldError) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type     string `json:"type"`
		Value    any    `json:"value"`
		Msg      string `json:"msg"`
		Path     string `json:"path"`
		Location string `json:"location"`
		Field    string `json:"field"`
		Message  string `json:"message"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*fe = FieldError{
		Type:     wire.Type,
		Value:    wire.Value,
		Message:  cmp.Or(wire.Msg, wire.Message),
		Field:    cmp.Or(wire.Path, wire.Field),
		Location: wire.Location,
	}
	return nil
}

// NewValidationError converts go-playground/validator errors.
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	fieldErrors := make([]FieldError, 0, len(errs))
	for _, err := range errs {
		fieldErrors = append(fieldErrors, FieldError{
			Type:     fieldErrorType,
			Value:    err.Value(),
			Message:  fieldMessage(err.Field()),
			Field:    err.Field(),
			Location: fieldErrorLocation,
		})
	}
	return &ValidationError{Errors: fieldErrors}
}

func (ve *ValidationError) Error() string {
	switch len(ve.Errors) {
	case 0:
		return "validation failed"
	case 1:
		return fmt.Sprintf("validation failed: %s", ve.Errors[0].Message)
	default:
		return fmt.Sprintf("validation failed: %d errors", len(ve.Errors))
	}
}

// Unwrap returns the backend rejection, if any.
func (ve *ValidationError) Unwrap() error {
	return ve.cause
}

// Field returns the error for the named field.
func (ve *ValidationError) Field(name string) (FieldError, bool) {
	for _, fe := range ve.Errors {
		if fe.Field == name {
			return fe, true
		}
	}
	return FieldError{}, false
}

// fieldMessage is the same text for every rule on a field, matching the backend.
func fieldMessage(field string) string {
	switch field {
	case "name":
		return "Name must be between 2 and 50 characters"
	case "email":
		return "Please provide a valid email address"
	case "service":
		return "Please select a valid service"
	case "message":
		return "Message must be between 10 and 500 characters"
	default:
		return fmt.Sprintf("%s failed validation", field)
	}
}

func validateService(fl validator.FieldLevel) bool {
	return slices.Contains(services, fl.Field().String())
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}
