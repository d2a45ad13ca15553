package classifier

import (
	"errors"
	"fmt"
)

// ErrNotDirectory is wrapped by DiscoveryError when the root path
// exists but is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// DiscoveryError is a fatal discovery failure: the root is missing,
// unreadable, or not a directory. Failures below the root are reported
// as warnings instead.
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("cannot scan %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}
