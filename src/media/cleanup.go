package media

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"smc-analysis/src/logger"
	"smc-analysis/src/models"
)

// -----------------------------------------------------------------------------
// Cleaner removes stale cache files and keeps the log file bounded, the
// disk-side counterpart of the database retention cleanup.
// -----------------------------------------------------------------------------

type Cleaner struct {
	Config *models.MConfig
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCleaner(cfg *models.MConfig, log *logger.Logger) *Cleaner {
	return &Cleaner{Config: cfg, Logger: log}
}

// -----------------------------------------------------------------------------

// PruneCaches deletes files in the configured cache dirs older than maxAge.
// Returns the number of files removed and the bytes reclaimed.
func (c *Cleaner) PruneCaches(maxAge time.Duration) (int, int64) {
	cutoff := time.Now().Add(-maxAge)

	removed := 0
	var reclaimed int64

	for _, dir := range c.Config.Media.CacheDirs {
		filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return nil
			}
			if fi.ModTime().Before(cutoff) {
				if err := os.Remove(p); err == nil {
					removed++
					reclaimed += fi.Size()
				}
			}
			return nil
		})
	}

	if removed > 0 {
		c.Logger.Info("Pruned %d cache files (%d bytes reclaimed)", removed, reclaimed)
	}
	return removed, reclaimed
}

// -----------------------------------------------------------------------------

// TruncateLog empties the log file once it exceeds maxMB.
func (c *Cleaner) TruncateLog(maxMB int) error {
	path := c.Config.LogFile
	if path == "" || maxMB <= 0 {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil // No log file yet
	}

	if info.Size() <= int64(maxMB)*1024*1024 {
		return nil
	}

	c.Logger.Info("Truncating log file %s (%d bytes)", path, info.Size())
	return os.Truncate(path, 0)
}

// -----------------------------------------------------------------------------

// Run executes the full disk cleanup pass.
func (c *Cleaner) Run(retentionDays int) {
	c.PruneCaches(time.Duration(retentionDays) * 24 * time.Hour)
	if err := c.TruncateLog(50); err != nil {
		c.Logger.Error("Log truncation failed: %v", err)
	}
}
