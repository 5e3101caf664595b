package media

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"smc-analysis/src/models"
)

// -----------------------------------------------------------------------------
// Disk accounting against the hosting quota.
// -----------------------------------------------------------------------------

// PathUsage walks one directory (or file) and sums its size.
func PathUsage(path string) models.MPathUsage {
	usage := models.MPathUsage{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		return usage
	}
	if !info.IsDir() {
		usage.Bytes = info.Size()
		usage.FileCount = 1
		return usage
	}

	filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil // Skip unreadable entries
		}
		if fi, err := d.Info(); err == nil {
			usage.Bytes += fi.Size()
			usage.FileCount++
		}
		return nil
	})

	return usage
}

// -----------------------------------------------------------------------------

// Usage reports disk consumption of the managed paths against the quota.
// quotaMB of 0 means no quota is enforced.
func Usage(quotaMB int, paths ...string) models.MDiskUsage {
	report := models.MDiskUsage{
		QuotaMB:     quotaMB,
		GeneratedAt: time.Now().UTC().Unix(),
	}

	for _, p := range paths {
		if p == "" {
			continue
		}
		u := PathUsage(p)
		report.Paths = append(report.Paths, u)
		report.TotalBytes += u.Bytes
	}

	if quotaMB > 0 {
		quotaBytes := int64(quotaMB) * 1024 * 1024
		report.QuotaUsed = float64(report.TotalBytes) / float64(quotaBytes)
		report.OverQuota = report.TotalBytes > quotaBytes
	}

	return report
}
