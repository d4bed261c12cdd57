package main

import "errors"

var (
	ErrLoadTopology    = errors.New("araneid: load topology failed")
	ErrInvalidTopology = errors.New("araneid: invalid topology")
	ErrUnknownHost     = errors.New("araneid: link references unknown host")
	ErrTapUnsupported  = errors.New("araneid: tap devices require linux")
)
