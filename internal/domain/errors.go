package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidGrade = errors.New("invalid grade")
	ErrInvalidState = errors.New("invalid card state")
	ErrInvalid      = errors.New("invalid input")
)
