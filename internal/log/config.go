package log

// Config configures the logger.
type Config struct {
	// Name is attached to every entry as the logger name.
	Name string `conf:"name" json:"name" yaml:"name"`

	// Level is the minimum enabled logging level: debug, info, warn, error.
	Level string `conf:"level" json:"level" yaml:"level"`

	// Format selects the encoder: json or console.
	Format string `conf:"format" json:"format" yaml:"format"`

	// Output selects the sink: stdout, stderr or file.
	Output string `conf:"output" json:"output" yaml:"output"`

	// File configures the rotating file sink, used when Output is file.
	File FileConfig `conf:"file" json:"file" yaml:"file"`
}

// FileConfig configures log file rotation.
type FileConfig struct {
	Path       string `conf:"path" json:"path" yaml:"path"`
	MaxSize    int    `conf:"max_size" json:"max_size" yaml:"max_size"`
	MaxBackups int    `conf:"max_backups" json:"max_backups" yaml:"max_backups"`
	MaxAge     int    `conf:"max_age" json:"max_age" yaml:"max_age"`
	Compress   bool   `conf:"compress" json:"compress" yaml:"compress"`
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{
		Name:   "kanban",
		Level:  "info",
		Format: "console",
		Output: "stdout",
		File: FileConfig{
			Path:       "kanban.log",
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}
