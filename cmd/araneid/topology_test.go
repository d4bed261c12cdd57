package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/araneid-sim/araneid/pkg/scheduler"
	"github.com/araneid-sim/araneid/pkg/vtime"
	"github.com/araneid-sim/araneid/pkg/worker"
)

const validTopology = `
duration: 10s
hosts:
  - name: alpha
    ip: 10.0.0.1
  - name: beta
    ip: 10.0.0.2
links:
  - from: alpha
    to: beta
    delay: 20ms
    bandwidth: 1Mbps
    buffer: 10KiB
    loss: 0.0
    bidirectional: true
`

func writeTopology(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "topology.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadTopologyValid(t *testing.T) {
	topo, duration, err := loadTopology(writeTopology(t, validTopology))
	require.NoError(t, err)
	assert.Equal(t, vtime.Seconds(10), duration)
	assert.Len(t, topo.Hosts, 2)
	assert.Len(t, topo.Links, 1)
	assert.True(t, topo.Links[0].Bidirectional)
}

func TestLoadTopologyMissingFile(t *testing.T) {
	_, _, err := loadTopology(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, ErrLoadTopology)
}

func TestLoadTopologyRejectsUnknownHost(t *testing.T) {
	_, _, err := loadTopology(writeTopology(t, `
duration: 1s
hosts:
  - name: alpha
    ip: 10.0.0.1
links:
  - from: alpha
    to: gamma
    delay: 1ms
    bandwidth: 1Mbps
    buffer: 1KiB
`))
	assert.ErrorIs(t, err, ErrUnknownHost)
}

func TestLoadTopologyRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"bad duration": `
duration: soon
hosts:
  - name: alpha
    ip: 10.0.0.1
`,
		"bad ip": `
duration: 1s
hosts:
  - name: alpha
    ip: not-an-ip
`,
		"duplicate host": `
duration: 1s
hosts:
  - name: alpha
    ip: 10.0.0.1
  - name: alpha
    ip: 10.0.0.2
`,
		"loss out of range": `
duration: 1s
hosts:
  - name: alpha
    ip: 10.0.0.1
  - name: beta
    ip: 10.0.0.2
links:
  - from: alpha
    to: beta
    delay: 1ms
    bandwidth: 1Mbps
    buffer: 1KiB
    loss: 1.5
`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := loadTopology(writeTopology(t, content))
			assert.ErrorIs(t, err, ErrInvalidTopology)
		})
	}
}

func TestBuildSimulationWiresLinks(t *testing.T) {
	topo, _, err := loadTopology(writeTopology(t, validTopology))
	require.NoError(t, err)

	pool := worker.New(1)
	defer pool.Stop()
	sched := scheduler.New(pool)

	sim, err := buildSimulation(topo, sched, nil, nil)
	require.NoError(t, err)

	assert.Len(t, sim.hosts, 2)
	// Bidirectional link builds one transmission per direction.
	assert.Len(t, sim.links, 2)
}
