package errors

import (
	"fmt"
)

// UnsupportedError is returned when the current platform
// cannot provide the requested functionality.
type UnsupportedError struct {
	Feature string
}

func (e UnsupportedError) Error() string {
	return fmt.Sprintf("%s is not supported on this platform", e.Feature)
}
