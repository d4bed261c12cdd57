package vtime

import "errors"

var (
	ErrParseDelta  = errors.New("vtime: parse duration")
	ErrUnknownUnit = errors.New("vtime: unknown duration unit")
)
