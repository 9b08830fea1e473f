package reddit

import (
	"errors"
	"fmt"
	"net/http"

	"botreplymsg/internal/transport"
)

var ErrNotFound = errors.New("reddit: not found")

// APIError is a non-2xx response or an error entry in a json API response.
type APIError struct {
	Status  int    // HTTP status
	Code    string // Reddit error code, e.g. NOT_WHITELISTED_BY_USER_MESSAGE
	Message string
	Field   string
}

func (e *APIError) Error() string {
	switch {
	case e.Code != "":
		return fmt.Sprintf("reddit api error %s: %s", e.Code, e.Message)
	default:
		return fmt.Sprintf("reddit api status %d: %s", e.Status, e.Message)
	}
}

// Is lets callers match with errors.Is against ErrNotFound and
// transport.ErrNotWhitelisted.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case transport.ErrNotWhitelisted:
		return e.Code == transport.ErrNotWhitelisted.Error()
	}
	return false
}
