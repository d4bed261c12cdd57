package transmission

import "errors"

var (
	ErrInvalidLossRate = errors.New("transmission: loss rate must be in [0,1]")
)
