package protocol

// Config represents the root daemon configuration. It is loaded once at startup
// and never mutated afterwards.
type Config struct {
	Version       string              `yaml:"version"`
	Server        ServerConfig        `yaml:"server"`
	RCON          RCONConfig          `yaml:"rcon"`
	Paths         PathsConfig         `yaml:"paths"`
	Reboot        RebootConfig        `yaml:"reboot"`
	Workshop      WorkshopConfig      `yaml:"workshop"`
	Observability ObservabilityConfig `yaml:"observability"`
}

type ServerConfig struct {
	StartCommand      string `yaml:"start_command"`       // Shell-quoted launch command
	ShellProcessName  string `yaml:"shell_process_name"`  // Wrapper script process name
	BinaryProcessName string `yaml:"binary_process_name"` // Game server binary process name
	IniPath           string `yaml:"ini_path"`            // Holds the WorkshopItems= line
}

type RCONConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	Timeout  string `yaml:"timeout"`
}

type PathsConfig struct {
	SnapshotFile string `yaml:"snapshot_file"`
	WorldDir     string `yaml:"world_dir"`
	BackupDir    string `yaml:"backup_dir"`
}

type RebootConfig struct {
	Enabled   bool `yaml:"enabled"`
	Threshold uint `yaml:"threshold"` // Restarts before the host is rebooted
}

type WorkshopConfig struct {
	BaseURL           string  `yaml:"base_url"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	RequestTimeout    string  `yaml:"request_timeout"`
	CheckTimeout      string  `yaml:"check_timeout"` // Upper bound on one staleness check
}

type ObservabilityConfig struct {
	MetricsAddr string `yaml:"metrics_addr"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
}

// Personal.AI order the ending
