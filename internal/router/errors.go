package router

import "errors"

// ErrDuplicateDestination marks a plan where two documents resolve to the same output file.
var ErrDuplicateDestination = errors.New("duplicate destination path")
