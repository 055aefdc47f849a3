package service

import "errors"

var (
	// ErrNotFound covers both a missing row and a row owned by someone
	// else, so cross-owner probing cannot learn that an id exists.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput marks validation failures; wrap it with detail.
	ErrInvalidInput = errors.New("invalid input")
)
