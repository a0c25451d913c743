package models

// MConfig Structure
type MConfig struct {
	Name      string           `yaml:"name"`
	Host      string           `yaml:"host"`
	Port      int              `yaml:"port"`
	LogLevel  string           `yaml:"log_level"`
	Cache     MCacheConfig     `yaml:"cache"`
	Storage   MStorageConfig   `yaml:"storage"`
	Network   MNetworkConfig   `yaml:"network"`
	Sources   []MSourceConfig  `yaml:"sources"`
	Scheduler MSchedulerConfig `yaml:"scheduler"`
}

type MCacheConfig struct {
	Backend              string `yaml:"backend"` // "file" or "redis"
	FilePath             string `yaml:"file_path"`
	RedisAddr            string `yaml:"redis_addr"`
	RedisPassword        string `yaml:"redis_password"`
	RedisDB              int    `yaml:"redis_db"`
	HistoricalTTLSeconds int    `yaml:"historical_ttl_seconds"`
	QuoteTTLSeconds      int    `yaml:"quote_ttl_seconds"`
	RosterTTLSeconds     int    `yaml:"roster_ttl_seconds"`
	SpotTTLSeconds       int    `yaml:"spot_ttl_seconds"`
}

type MStorageConfig struct {
	DBType             string `yaml:"db_type"` // "sqlite" or "postgres"
	DBPath             string `yaml:"db_path"`
	DBConnectionString string `yaml:"db_connection_string"`
}

type MNetworkConfig struct {
	RequestTimeout int    `yaml:"timeout"`
	MaxRetries     int    `yaml:"retries"`
	UserAgent      string `yaml:"user_agent"`
}

type MSourceConfig struct {
	Name    string   `yaml:"name"` // "eastmoney" or "yahoo"
	Active  bool     `yaml:"active"`
	Symbols []string `yaml:"symbols"`
}

type MSchedulerConfig struct {
	Enabled      bool     `yaml:"enabled"`
	CronSpec     string   `yaml:"cron_spec"`
	WatchSymbols []string `yaml:"watch_symbols"`
}
