// Package provision shells out to the host tooling that builds the
// emulation's physical footprint: Linux bridges, TAP devices, and LXC
// containers. It composes and runs commands; it does not parse their
// output or track lifecycle state beyond start and stop.
package provision

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/araneid-sim/araneid/internal/errx"
)

// Default container template, matching the stock LXC download template.
const (
	DefaultTemplate = "download"
)

// DefaultTemplateArgs returns a fresh copy of the default template
// arguments so callers can append without aliasing.
func DefaultTemplateArgs() []string { return []string{"--dist", "ubuntu"} }

// BridgeName and TapName derive the interface names used for a host.
func BridgeName(host string) string { return "br-" + host }
func TapName(host string) string    { return "tap-" + host }

// Runner executes one host command. The default runs it via exec.Command;
// tests substitute a recorder.
type Runner func(name string, args ...string) error

// Harness provisions bridges, TAPs, and containers for emulated hosts.
type Harness struct {
	log *slog.Logger
	run Runner
}

// New builds a Harness using the real command runner.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Harness{log: logger.With("component", "provision")}
	h.run = h.execRun
	return h
}

// NewWithRunner builds a Harness with an injected Runner, for tests.
func NewWithRunner(logger *slog.Logger, run Runner) *Harness {
	h := New(logger)
	h.run = run
	return h
}

func (h *Harness) execRun(name string, args ...string) error {
	out, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		cmdline := shellquote.Join(append([]string{name}, args...)...)
		return errx.With(ErrCommandFailed, " %s: %v: %s", cmdline, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// CreateBridge adds the bridge interface for host and raises it.
func (h *Harness) CreateBridge(host string) error {
	br := BridgeName(host)
	h.log.Info("creating bridge", "bridge", br)
	if err := h.run("ip", "link", "add", br, "type", "bridge"); err != nil {
		return err
	}
	return h.run("ip", "link", "set", "dev", br, "up")
}

// CreateTapAndAttach adds the TAP interface for host, raises it
// promiscuous, and enslaves it to the host's bridge.
func (h *Harness) CreateTapAndAttach(host string) error {
	tp, br := TapName(host), BridgeName(host)
	h.log.Info("creating tap", "tap", tp, "bridge", br)
	steps := [][]string{
		{"ip", "tuntap", "add", "mode", "tap", tp},
		{"ip", "link", "set", "dev", tp, "promisc", "on", "up"},
		{"ip", "link", "set", "dev", tp, "master", br},
		{"ip", "link", "set", "dev", br, "up"},
	}
	for _, step := range steps {
		if err := h.run(step[0], step[1:]...); err != nil {
			return err
		}
	}
	return nil
}

// DeleteLink removes a bridge or TAP interface by name.
func (h *Harness) DeleteLink(name string) error {
	return h.run("ip", "link", "del", name)
}

// CreateContainer creates an LXC container from template with the given
// template args and key-value config. An empty template uses
// DefaultTemplate with DefaultTemplateArgs.
func (h *Harness) CreateContainer(name, template string, templateArgs []string, config map[string]string) error {
	if template == "" {
		template = DefaultTemplate
		templateArgs = DefaultTemplateArgs()
	}

	args := []string{"-n", name, "-t", template}
	if len(config) > 0 {
		path, err := writeConfigFile(name, config)
		if err != nil {
			return err
		}
		defer os.Remove(path)
		args = append(args, "-f", path)
	}
	if len(templateArgs) > 0 {
		args = append(append(args, "--"), templateArgs...)
	}

	h.log.Info("creating container", "name", name, "command", shellquote.Join(append([]string{"lxc-create"}, args...)...))
	return h.run("lxc-create", args...)
}

// StartContainer starts a created container in the background.
func (h *Harness) StartContainer(name string) error {
	return h.run("lxc-start", "-n", name, "-d")
}

// StopContainer stops a running container.
func (h *Harness) StopContainer(name string) error {
	return h.run("lxc-stop", "-n", name)
}

// DestroyContainer removes a stopped container.
func (h *Harness) DestroyContainer(name string) error {
	return h.run("lxc-destroy", "-n", name)
}

// writeConfigFile renders config as lxc config lines, sorted for
// deterministic output.
func writeConfigFile(name string, config map[string]string) (string, error) {
	keys := make([]string, 0, len(config))
	for k := range config {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s = %s\n", k, config[k])
	}

	f, err := os.CreateTemp("", "araneid-lxc-"+name+"-*.conf")
	if err != nil {
		return "", errx.Wrap(ErrWriteConfig, err)
	}
	if _, err := f.WriteString(b.String()); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", errx.Wrap(ErrWriteConfig, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", errx.Wrap(ErrWriteConfig, err)
	}
	return f.Name(), nil
}
