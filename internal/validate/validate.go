// Package validate holds the grammars applied to directory input. Both checks
// are pure: the same input always produces the same outcome.
package validate

import "errors"

// ErrInvalid is matched by every validation failure.
var ErrInvalid = errors.New("validate: invalid input")

// Field names reported in Error.
const (
	FieldName  = "name"
	FieldPhone = "phone_number"
)

// Error describes why a value was rejected. The reason is safe to return to
// the caller verbatim.
type Error struct {
	Field  string
	Reason string
}

func (e *Error) Error() string {
	return e.Field + ": " + e.Reason
}

// Is reports whether target is ErrInvalid.
func (e *Error) Is(target error) bool {
	return target == ErrInvalid
}

func reject(field, reason string) error {
	return &Error{Field: field, Reason: reason}
}

// Validator checks a candidate name and phone number and returns their
// canonical forms.
type Validator interface {
	Name(raw string) (string, error)
	Phone(raw string) (string, error)
}

// Rules is the default Validator.
type Rules struct{}

var _ Validator = Rules{}

func (Rules) Name(raw string) (string, error)  { return Name(raw) }
func (Rules) Phone(raw string) (string, error) { return Phone(raw) }
