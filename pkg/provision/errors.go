package provision

import "errors"

var (
	ErrCommandFailed = errors.New("provision: host command failed")
	ErrWriteConfig   = errors.New("provision: write container config failed")
	ErrSetupNAT      = errors.New("provision: setup nat rules failed")
	ErrCleanupNAT    = errors.New("provision: cleanup nat rules failed")
)
