package reader

import "errors"

var (
	// ErrRead reports a data file that could not be opened or parsed.
	ErrRead = errors.New("read data file")
	// ErrTimeData reports malformed time keys.
	ErrTimeData = errors.New("malformed time data")
)
