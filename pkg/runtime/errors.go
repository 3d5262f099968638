package runtime

import (
	"errors"
	"fmt"
)

// DuplicateResourceError is returned when a program registers the same
// token and name twice
type DuplicateResourceError struct {
	URN string
}

func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("duplicate resource URN %q", e.URN)
}

// IsDuplicateResource reports whether err is a *DuplicateResourceError
func IsDuplicateResource(err error) bool {
	var dup *DuplicateResourceError
	return errors.As(err, &dup)
}

// isNotFound matches provider errors exposing IsNotFound, such as *client.APIError
func isNotFound(err error) bool {
	var nf interface{ IsNotFound() bool }
	return errors.As(err, &nf) && nf.IsNotFound()
}
