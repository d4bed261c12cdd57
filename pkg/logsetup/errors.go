package logsetup

import "errors"

var (
	ErrCreateLogDir  = errors.New("logsetup: create log directory failed")
	ErrRotateLogFile = errors.New("logsetup: rotate existing log file failed")
	ErrCreateLogFile = errors.New("logsetup: create log file failed")
)
