// Package slideshow holds the display-side view of the resolved settings and
// the image folder contents. Rendering is out of scope; the renderer reads
// the Controller's snapshot and file list.
package slideshow

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"easel/internal/config"
)

// Controller is the in-process consumer of applied settings. It implements
// the poller's Applier contract and rescans the image folder only when the
// folder or the extension filter actually changed.
type Controller struct {
	logger *slog.Logger

	mu      sync.RWMutex
	current *config.Resolved
	images  []string
}

// NewController returns a controller with no settings applied yet.
func NewController(logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{logger: logger}
}

// ApplyInitial installs the startup snapshot and performs the first folder
// scan.
func (c *Controller) ApplyInitial(resolved *config.Resolved) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = resolved
	c.rescanLocked()
}

// Apply installs a new snapshot, reacting only to the keys that changed.
func (c *Controller) Apply(changed []string, resolved *config.Resolved) {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.current
	c.current = resolved

	rescan := false
	for _, key := range changed {
		switch key {
		case config.KeyDefaultFolder, config.KeyImageExtensions:
			rescan = true
		case config.KeyDefaultInterval:
			if previous != nil {
				c.logger.Info("interval changed",
					slog.Int("from", previous.IntervalSeconds),
					slog.Int("to", resolved.IntervalSeconds))
			}
		}
	}
	c.logger.Info("settings applied", slog.String("changed", strings.Join(changed, ",")))
	if rescan {
		c.rescanLocked()
	}
}

// Current returns the applied snapshot, nil before ApplyInitial.
func (c *Controller) Current() *config.Resolved {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Images returns the most recent folder scan.
func (c *Controller) Images() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.images))
	copy(out, c.images)
	return out
}

func (c *Controller) rescanLocked() {
	if c.current == nil {
		return
	}
	folder, err := c.current.ImagesDir()
	if err != nil {
		c.logger.Warn("resolve image folder failed", slog.String("error", err.Error()))
		return
	}
	images, err := ListImages(folder, c.current.ImageExtensions)
	if err != nil {
		c.logger.Warn("scan image folder failed", slog.String("folder", folder), slog.String("error", err.Error()))
		return
	}
	c.images = images
	c.logger.Info("image folder scanned", slog.String("folder", folder), slog.Int("count", len(images)))
}

// ListImages returns the sorted paths under folder whose extension is in
// extensions.
func ListImages(folder string, extensions []string) ([]string, error) {
	valid := make(map[string]struct{}, len(extensions))
	for _, ext := range extensions {
		valid[strings.ToLower(strings.TrimSpace(ext))] = struct{}{}
	}

	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, err
	}
	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, ok := valid[strings.ToLower(filepath.Ext(entry.Name()))]; ok {
			images = append(images, filepath.Join(folder, entry.Name()))
		}
	}
	sort.Strings(images)
	return images, nil
}
