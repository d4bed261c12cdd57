package packet

import "errors"

var (
	ErrTruncatedEthernet = errors.New("packet: truncated ethernet frame")
	ErrTruncatedVLAN     = errors.New("packet: truncated 802.1q tag")
	ErrTruncatedIPv4     = errors.New("packet: truncated ipv4 header")
	ErrUnsupportedIPv6   = errors.New("packet: ipv6 is not supported")
	ErrUnsupportedEther  = errors.New("packet: unsupported ethertype")
	ErrBadIPVersion      = errors.New("packet: bad ip version")
	ErrBadIHL            = errors.New("packet: bad ip header length")
)
