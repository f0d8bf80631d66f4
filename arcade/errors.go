package arcade

import "errors"

// Error kinds returned when building or compiling a song. Use errors.Is to check for them.
var (
	ErrConfiguration    = errors.New("configuration error")
	ErrEncodingOverflow = errors.New("value does not fit its field")
	ErrRange            = errors.New("value out of range")
	ErrUnsupported      = errors.New("not implemented")
)
