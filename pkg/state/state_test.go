package state

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAllocator(t *testing.T) *SubnetAllocator {
	t.Helper()
	a, err := NewSubnetAllocator(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestAllocateAssignsFirstFreeOctet(t *testing.T) {
	a := newTestAllocator(t)

	info, err := a.Allocate("host-a")
	require.NoError(t, err)
	assert.Equal(t, 100, info.Octet)
	assert.Equal(t, "192.168.100.1", info.GatewayIP)
	assert.Equal(t, "192.168.100.2", info.GuestIP)
	assert.Equal(t, "192.168.100.0/24", info.Subnet)

	second, err := a.Allocate("host-b")
	require.NoError(t, err)
	assert.Equal(t, 101, second.Octet)
}

func TestAllocateIsIdempotentPerHost(t *testing.T) {
	a := newTestAllocator(t)

	first, err := a.Allocate("host-a")
	require.NoError(t, err)
	again, err := a.Allocate("host-a")
	require.NoError(t, err)
	assert.Equal(t, first.Octet, again.Octet)
}

func TestReleaseFreesOctetForReuse(t *testing.T) {
	a := newTestAllocator(t)

	_, err := a.Allocate("host-a")
	require.NoError(t, err)
	_, err = a.Allocate("host-b")
	require.NoError(t, err)

	require.NoError(t, a.Release("host-a"))

	reused, err := a.Allocate("host-c")
	require.NoError(t, err)
	assert.Equal(t, 100, reused.Octet)
}

func TestReleaseUnknownHostIsNoOp(t *testing.T) {
	a := newTestAllocator(t)
	assert.NoError(t, a.Release("host-missing"))
}

func TestGetUnknownHost(t *testing.T) {
	a := newTestAllocator(t)
	_, err := a.Get("host-missing")
	assert.ErrorIs(t, err, ErrSubnetNotFound)
}

func TestListReturnsAllocationsInOctetOrder(t *testing.T) {
	a := newTestAllocator(t)

	for _, host := range []string{"host-a", "host-b", "host-c"} {
		_, err := a.Allocate(host)
		require.NoError(t, err)
	}

	infos, err := a.List()
	require.NoError(t, err)
	require.Len(t, infos, 3)
	assert.Equal(t, []int{100, 101, 102}, []int{infos[0].Octet, infos[1].Octet, infos[2].Octet})
}

func TestAllocationsSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")

	a, err := NewSubnetAllocator(path)
	require.NoError(t, err)
	_, err = a.Allocate("host-a")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	b, err := NewSubnetAllocator(path)
	require.NoError(t, err)
	defer b.Close()

	info, err := b.Get("host-a")
	require.NoError(t, err)
	assert.Equal(t, 100, info.Octet)

	next, err := b.Allocate("host-b")
	require.NoError(t, err)
	assert.Equal(t, 101, next.Octet)
}

func TestExhaustionReturnsError(t *testing.T) {
	a := newTestAllocator(t)

	for i := minOctet; i <= maxOctet; i++ {
		_, err := a.Allocate(fmt.Sprintf("host-%d", i))
		require.NoError(t, err)
	}

	_, err := a.Allocate("host-overflow")
	assert.ErrorIs(t, err, ErrNoAvailableSubnets)
}
