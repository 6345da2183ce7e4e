package stations

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a station id is not in the database.
	ErrNotFound = errors.New("station not found")

	// ErrQueryTooShort is returned by Search for queries under MinQueryLength.
	ErrQueryTooShort = fmt.Errorf("please provide a search query (min %d characters)", MinQueryLength)
)

// IOError wraps a failure to read the station list or write its JSON
// form, as opposed to a failure while processing the contents.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// IsIOError reports whether err was caused by file I/O.
func IsIOError(err error) bool {
	var target *IOError
	return errors.As(err, &target)
}
