package source

import (
	"errors"
	"fmt"
)

var (
	// ErrStatus is returned when an upstream endpoint responds with a non-2xx
	// status. The status code is part of the wrapping error.
	ErrStatus = errors.New("unexpected status")

	// ErrUnexpectedPayload is returned when an upstream payload is not the
	// expected array of records.
	ErrUnexpectedPayload = errors.New("unexpected payload")
)

// UserMessage converts a load failure into the single message shown to users
// instead of any data.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Fehler beim Abrufen der Daten: %s", err.Error())
}
