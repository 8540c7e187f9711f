package directory

import "errors"

var (
	ErrNotFound = errors.New("directory: entry not found")
	ErrConflict = errors.New("directory: phone number already listed")
)

// Entry is one directory listing. Name and PhoneNumber are stored in the
// canonical form returned by the validator.
type Entry struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}
