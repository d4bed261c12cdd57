package provision

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/kballard/go-shellquote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	commands []string
	fail     map[string]error
}

func (r *recorder) run(name string, args ...string) error {
	cmdline := shellquote.Join(append([]string{name}, args...)...)
	r.commands = append(r.commands, cmdline)
	for prefix, err := range r.fail {
		if strings.HasPrefix(cmdline, prefix) {
			return err
		}
	}
	return nil
}

func TestCreateBridgeCommands(t *testing.T) {
	rec := &recorder{}
	h := NewWithRunner(nil, rec.run)

	require.NoError(t, h.CreateBridge("alpha"))
	assert.Equal(t, []string{
		"ip link add br-alpha type bridge",
		"ip link set dev br-alpha up",
	}, rec.commands)
}

func TestCreateTapAndAttachCommands(t *testing.T) {
	rec := &recorder{}
	h := NewWithRunner(nil, rec.run)

	require.NoError(t, h.CreateTapAndAttach("alpha"))
	assert.Equal(t, []string{
		"ip tuntap add mode tap tap-alpha",
		"ip link set dev tap-alpha promisc on up",
		"ip link set dev tap-alpha master br-alpha",
		"ip link set dev br-alpha up",
	}, rec.commands)
}

func TestCreateTapStopsOnFirstFailure(t *testing.T) {
	boom := errors.New("exec: not permitted")
	rec := &recorder{fail: map[string]error{"ip tuntap": boom}}
	h := NewWithRunner(nil, rec.run)

	err := h.CreateTapAndAttach("alpha")
	require.ErrorIs(t, err, boom)
	assert.Len(t, rec.commands, 1)
}

func TestCreateContainerDefaultsTemplate(t *testing.T) {
	rec := &recorder{}
	h := NewWithRunner(nil, rec.run)

	require.NoError(t, h.CreateContainer("host-a", "", nil, nil))
	require.Len(t, rec.commands, 1)
	assert.Equal(t, "lxc-create -n host-a -t download -- --dist ubuntu", rec.commands[0])
}

func TestCreateContainerWritesConfig(t *testing.T) {
	var configPath string
	rec := &recorder{}
	h := NewWithRunner(nil, func(name string, args ...string) error {
		for i, a := range args {
			if a == "-f" {
				configPath = args[i+1]
			}
		}
		// Capture the config before CreateContainer removes the temp file.
		data, err := os.ReadFile(configPath)
		require.NoError(t, err)
		assert.Equal(t, "lxc.net.0.ipv4.address = 192.168.100.2/24\nlxc.net.0.link = br-host-a\n", string(data))
		return rec.run(name, args...)
	})

	err := h.CreateContainer("host-a", "download", []string{"--dist", "ubuntu", "--release", "jammy"}, map[string]string{
		"lxc.net.0.link":         "br-host-a",
		"lxc.net.0.ipv4.address": "192.168.100.2/24",
	})
	require.NoError(t, err)
	require.NotEmpty(t, configPath)
	_, statErr := os.Stat(configPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestContainerLifecycleCommands(t *testing.T) {
	rec := &recorder{}
	h := NewWithRunner(nil, rec.run)

	require.NoError(t, h.StartContainer("host-a"))
	require.NoError(t, h.StopContainer("host-a"))
	require.NoError(t, h.DestroyContainer("host-a"))
	require.NoError(t, h.DeleteLink("br-host-a"))

	assert.Equal(t, []string{
		"lxc-start -n host-a -d",
		"lxc-stop -n host-a",
		"lxc-destroy -n host-a",
		"ip link del br-host-a",
	}, rec.commands)
}
