package tap

import "errors"

var (
	ErrOpenTun            = errors.New("tap: open /dev/net/tun failed")
	ErrBindTap            = errors.New("tap: bind tap interface failed")
	ErrConfigureInterface = errors.New("tap: configure interface failed")
)
