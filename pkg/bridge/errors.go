package bridge

import "errors"

var (
	ErrFrameTooLarge = errors.New("bridge: frame exceeds scratch buffer")
	ErrWriteTap      = errors.New("bridge: write to tap fd failed")
)
