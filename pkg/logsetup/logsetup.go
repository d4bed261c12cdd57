// Package logsetup configures the process logger: a text slog handler
// appending to out/araneid.log, with any log left by a previous run
// renamed aside first so each run starts a fresh file.
package logsetup

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/araneid-sim/araneid/internal/errx"
)

// FileName is the active log file under the output directory.
const FileName = "araneid.log"

// Init prepares outDir and returns a logger writing to the log file inside
// it, plus the open file for the caller to close on shutdown. An existing
// log from a previous run is renamed to araneid_<unix-timestamp>.log.
func Init(outDir string, level slog.Level) (*slog.Logger, *os.File, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, nil, errx.Wrap(ErrCreateLogDir, err)
	}

	path := filepath.Join(outDir, FileName)
	if _, err := os.Stat(path); err == nil {
		rotated := filepath.Join(outDir, fmt.Sprintf("araneid_%d.log", time.Now().Unix()))
		if err := os.Rename(path, rotated); err != nil {
			return nil, nil, errx.Wrap(ErrRotateLogFile, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, errx.Wrap(ErrCreateLogFile, err)
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, f, nil
}
