package logger

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

const defaultLevel = "info"

// Config controls logger construction.
type Config struct {
	// Level is the minimum level: debug, info, warn, error or fatal.
	Level string `mapstructure:"level" yaml:"level"`
	// Format is "json" (default) or "console".
	Format      string   `mapstructure:"format"       yaml:"format"`
	Development bool     `mapstructure:"development"  yaml:"development"`
	OutputPaths []string `mapstructure:"output_paths" yaml:"output_paths"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Level == "" {
		c.Level = defaultLevel
	}
	if c.Format == "" {
		c.Format = FormatJSON
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stderr"}
	}
}
