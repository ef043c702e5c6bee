package engine

import "errors"

var (
	// ErrPathNotFound is returned when a table directory or file does not exist.
	ErrPathNotFound = errors.New("table path not found")
	// ErrMalformedCSV is returned when a CSV file has no header or bad rows.
	ErrMalformedCSV = errors.New("malformed csv")
)
