// Package app holds process-level helpers for the viewer server.
package app

import (
	"log"
	"os"
	"path/filepath"
	"syscall"
	"time"
)

// HotReloader watches the running binary and restarts the server when a
// newer build appears. Development convenience; headless restart is safe
// here because all viewer state lives in the browser and the registry
// store.
type HotReloader struct {
	execPath      string
	baseline      time.Time
	checkInterval time.Duration
	stopCh        chan struct{}
}

// NewHotReloader watches the current executable. Returns nil if the
// executable path cannot be determined.
func NewHotReloader(checkInterval time.Duration) *HotReloader {
	execPath, err := os.Executable()
	if err != nil {
		return nil
	}

	// go build may replace the file behind a symlink
	if realPath, err := filepath.EvalSymlinks(execPath); err == nil {
		execPath = realPath
	}

	info, err := os.Stat(execPath)
	if err != nil {
		return nil
	}

	return &HotReloader{
		execPath:      execPath,
		baseline:      info.ModTime(),
		checkInterval: checkInterval,
		stopCh:        make(chan struct{}),
	}
}

// ExecPath returns the path to the watched executable.
func (h *HotReloader) ExecPath() string { return h.execPath }

// Start begins watching in a background goroutine and restarts the
// process when the binary changes.
func (h *HotReloader) Start() {
	go h.watchLoop()
}

// Stop ends the watch.
func (h *HotReloader) Stop() {
	close(h.stopCh)
}

func (h *HotReloader) watchLoop() {
	ticker := time.NewTicker(h.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.stopCh:
			return
		case <-ticker.C:
			if !h.updated() {
				continue
			}
			log.Printf("Hot reload: newer binary at %s, restarting", h.execPath)
			if err := RestartProcess(h.execPath); err != nil {
				log.Printf("Hot reload: restart failed: %v", err)
				return
			}
		}
	}
}

func (h *HotReloader) updated() bool {
	info, err := os.Stat(h.execPath)
	if err != nil {
		return false
	}
	return info.ModTime().After(h.baseline)
}

// RestartProcess replaces the current process with a new instance of the
// specified executable, preserving command line arguments and
// environment. Does not return on success.
func RestartProcess(execPath string) error {
	return syscall.Exec(execPath, os.Args, os.Environ())
}
