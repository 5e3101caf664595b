package models

// MDiskUsage reports how much of the hosting quota the managed paths consume.
type MDiskUsage struct {
	Paths       []MPathUsage `json:"paths"`
	TotalBytes  int64        `json:"total_bytes"`
	QuotaMB     int          `json:"quota_mb"`
	QuotaUsed   float64      `json:"quota_used"` // fraction 0..1, 0 if no quota set
	OverQuota   bool         `json:"over_quota"`
	GeneratedAt int64        `json:"generated_at"`
}

type MPathUsage struct {
	Path      string `json:"path"`
	Bytes     int64  `json:"bytes"`
	FileCount int    `json:"file_count"`
}
