package entities

import "errors"

// Lookup failures shared by the stores and the services built on them.
var (
	ErrBookNotFound    = errors.New("book not found")
	ErrReaderNotFound  = errors.New("reader not found")
	ErrSessionNotFound = errors.New("reading session not found")
)
