package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Palette is the fixed set of colours a role can be shown in.
var Palette = []string{
	"salmon", "khaki", "beige", "lightgreen", "orange", "bisque", "tomato",
	"aqua", "orchid", "peachpuff", "powderblue", "lightskyblue", "white",
}

// ErrUnknownColor is returned when a colour is not part of the palette.
var ErrUnknownColor = errors.New("color is not in the palette")

// ValidationError represents a role that cannot be sent to the server.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("palette", func(fl validator.FieldLevel) bool {
		return IsPaletteColor(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}

// IsPaletteColor reports whether c is one of the palette colours.
func IsPaletteColor(c string) bool {
	for _, p := range Palette {
		if p == c {
			return true
		}
	}
	return false
}

// CheckColor returns ErrUnknownColor unless c is empty or in the palette.
func CheckColor(c string) error {
	if c == "" || IsPaletteColor(c) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownColor, c)
}

// ValidateRole checks a role before it is created or updated.
func ValidateRole(role *Role) error {
	if role == nil {
		return &ValidationError{Message: "role cannot be nil"}
	}
	err := validate.Struct(role)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return &ValidationError{Message: strings.Join(msgs, "; ")}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", strings.ToLower(fe.Field()))
	case "palette":
		return fmt.Sprintf("color %q is not in the palette", fe.Value())
	case "unique":
		return "term keys must be unique"
	default:
		return fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag())
	}
}
