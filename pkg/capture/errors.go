package capture

import "errors"

var (
	ErrCreateTrace = errors.New("capture: create trace file failed")
	ErrWriteRecord = errors.New("capture: write trace record failed")
	ErrReadTrace   = errors.New("capture: read trace file failed")
)
