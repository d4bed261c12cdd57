package errx_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/araneid-sim/araneid/internal/errx"
)

var errBoom = errors.New("pkg: boom")

func TestWrapPreservesSentinel(t *testing.T) {
	cause := errors.New("disk full")
	err := errx.Wrap(errBoom, cause)

	assert.ErrorIs(t, err, errBoom)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "disk full")
}

func TestWrapNilCause(t *testing.T) {
	err := errx.Wrap(errBoom, nil)
	assert.Same(t, errBoom, err)
}

func TestWithFormatsDetail(t *testing.T) {
	err := errx.With(errBoom, ": mkfs %s", "/dev/sda1")
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "/dev/sda1")
}

func TestWithWrapsInnerError(t *testing.T) {
	inner := errors.New("permission denied")
	err := errx.With(errBoom, ": open file: %w", inner)
	assert.ErrorIs(t, err, errBoom)
	assert.ErrorIs(t, err, inner)
}
