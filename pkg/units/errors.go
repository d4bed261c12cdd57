package units

import "errors"

var ErrUnknownUnit = errors.New("units: unknown unit")
