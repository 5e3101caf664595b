package assets

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"smc-analysis/src/logger"
	"smc-analysis/src/models"
)

// -----------------------------------------------------------------------------
// Collector copies asset source directories into the static root so the
// server can mount a single /static/ directory.
// -----------------------------------------------------------------------------

type Collector struct {
	Config *models.MConfig
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewCollector(cfg *models.MConfig, log *logger.Logger) *Collector {
	return &Collector{Config: cfg, Logger: log}
}

// -----------------------------------------------------------------------------

// Collect copies every file from the configured source dirs into the static
// root, preserving relative paths. Existing files are overwritten, so the
// operation is idempotent. Returns files copied and total bytes.
func (c *Collector) Collect() (int, int64, error) {
	root := c.Config.Static.Root
	if err := os.MkdirAll(root, 0755); err != nil {
		return 0, 0, fmt.Errorf("failed to create static root '%s': %w", root, err)
	}

	copied := 0
	var bytes int64

	for _, srcDir := range c.Config.Static.SourceDirs {
		info, err := os.Stat(srcDir)
		if err != nil || !info.IsDir() {
			c.Logger.Warning("Skipping missing asset dir: %s", srcDir)
			continue
		}

		err = filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}

			rel, err := filepath.Rel(srcDir, p)
			if err != nil {
				return err
			}

			n, err := copyFile(p, filepath.Join(root, rel))
			if err != nil {
				return err
			}

			copied++
			bytes += n
			return nil
		})
		if err != nil {
			return copied, bytes, fmt.Errorf("failed collecting from '%s': %w", srcDir, err)
		}
	}

	c.Logger.Info("Collected %d static files (%d bytes) into %s", copied, bytes, root)
	return copied, bytes, nil
}

// -----------------------------------------------------------------------------

func copyFile(src, dst string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return 0, err
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	return io.Copy(out, in)
}
