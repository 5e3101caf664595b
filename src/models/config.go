package models

// MConfig Structure
type MConfig struct {
	Name        string         `yaml:"name"`
	Host        string         `yaml:"host"`
	Port        int            `yaml:"port"`
	LogLevel    string         `yaml:"log_level"`
	LogFile     string         `yaml:"log_file"`
	Storage     MStorageConfig `yaml:"storage"`
	Network     MNetworkConfig `yaml:"network"`
	Media       MMediaConfig   `yaml:"media"`
	Static      MStaticConfig  `yaml:"static"`
	Feed        MFeedConfig    `yaml:"feed"`
	Timeframes  []string       `yaml:"timeframes"`
	DiskQuotaMB int            `yaml:"disk_quota_mb"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"`
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
	RetentionDays      int    `yaml:"retention_days"`
}

type MNetworkConfig struct {
	Enabled            bool     `yaml:"enabled"`
	Proxies            []string `yaml:"proxies"`
	RequestTimeout     int      `yaml:"timeout"`
	MaxRetries         int      `yaml:"retries"`
	ConcurrentRequests int      `yaml:"concurrent_requests"`
	UserAgent          string   `yaml:"user_agent"`
}

type MMediaConfig struct {
	Root              string   `yaml:"root"`
	URLPrefix         string   `yaml:"url_prefix"`
	MaxUploadMB       int      `yaml:"max_upload_mb"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
	CacheDirs         []string `yaml:"cache_dirs"`
}

type MStaticConfig struct {
	Root       string   `yaml:"root"`
	URLPrefix  string   `yaml:"url_prefix"`
	SourceDirs []string `yaml:"source_dirs"`
}

type MFeedConfig struct {
	Type                string   `yaml:"type"` // "sim" or "remote"
	Endpoint            string   `yaml:"endpoint"`
	Symbols             []string `yaml:"symbols"`
	HistoryCandles      int      `yaml:"history_candles"`
	TickIntervalSeconds int      `yaml:"tick_interval_seconds"`
}
