//go:build linux

// Package tap opens and configures host TAP devices: the kernel-side
// endpoints whose Ethernet frames the emulation carries.
package tap

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/araneid-sim/araneid/internal/errx"
)

const tunDevice = "/dev/net/tun"

// Open binds a TAP interface named name, with no packet-info prefix, so
// reads and writes on the returned file carry complete Ethernet frames.
// The fd is left in non-blocking mode so the runtime poller (and read
// deadlines) work on it.
func Open(name string) (*os.File, error) {
	fd, err := unix.Open(tunDevice, unix.O_RDWR, 0)
	if err != nil {
		return nil, errx.With(ErrOpenTun, ": %w", err)
	}

	ifr, err := unix.NewIfreq(name)
	if err != nil {
		unix.Close(fd)
		return nil, errx.With(ErrBindTap, " ifreq %s: %w", name, err)
	}
	ifr.SetUint16(unix.IFF_TAP | unix.IFF_NO_PI)
	if err := unix.IoctlIfreq(fd, unix.TUNSETIFF, ifr); err != nil {
		unix.Close(fd)
		return nil, errx.With(ErrBindTap, " %s: %w", name, err)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, errx.With(ErrBindTap, " set nonblock %s: %w", name, err)
	}
	return os.NewFile(uintptr(fd), tunDevice), nil
}

// SetPromiscUp raises the interface with promiscuous mode enabled, the
// state a bridged TAP needs to see every frame its bridge forwards.
func SetPromiscUp(name string) error {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return errx.With(ErrConfigureInterface, " socket: %w", err)
	}
	defer unix.Close(fd)

	ifr, err := unix.NewIfreq(name)
	if err != nil {
		return errx.With(ErrConfigureInterface, " ifreq %s: %w", name, err)
	}
	if err := unix.IoctlIfreq(fd, unix.SIOCGIFFLAGS, ifr); err != nil {
		return errx.With(ErrConfigureInterface, " get flags %s: %w", name, err)
	}

	flags := ifr.Uint16() | uint16(unix.IFF_UP) | uint16(unix.IFF_PROMISC)
	if flags == ifr.Uint16() {
		return nil
	}
	ifr.SetUint16(flags)
	if err := unix.IoctlIfreq(fd, unix.SIOCSIFFLAGS, ifr); err != nil {
		return errx.With(ErrConfigureInterface, " set flags %s: %w", name, err)
	}
	return nil
}
