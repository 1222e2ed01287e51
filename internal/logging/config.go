package logging

// Config holds logging-related configuration
type Config struct {
	File       string `json:"file"`        // Path to log file; empty logs to stdout only
	MaxSize    int    `json:"max_size"`    // Max size in MB
	MaxBackups int    `json:"max_backups"` // Number of backups to keep
	MaxAge     int    `json:"max_age"`     // Max age in days
}
