package device

import "errors"

var (
	ErrNoRoute   = errors.New("device: no outgoing transmission for destination")
	ErrNoBridge  = errors.New("device: no bridge to forward packet")
	ErrNilPacket = errors.New("device: nil packet")
)
