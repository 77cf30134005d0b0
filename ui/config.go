package ui

// Config contains TUI-specific configuration.
type Config struct {
	EnableMouse bool

	// Folder searched by the "find documents" key and, when Watch is
	// set, watched for new documents.
	Path  string
	Watch bool

	// Patterns select the documents picked up by discovery.
	Patterns []string

	// ConsoleLevel is the initial console filter: ALL, DEBUG, INFO,
	// WARNING, ERROR or CRITICAL.
	ConsoleLevel string `env:"KOKORO_CONSOLE_LEVEL" envDefault:"ALL"`
	// ConsoleLines caps the console history.
	ConsoleLines int `env:"KOKORO_CONSOLE_LINES" envDefault:"500"`

	// For debugging the UI
	AltScreen bool `env:"KOKORO_ALT_SCREEN" envDefault:"true"`
}
