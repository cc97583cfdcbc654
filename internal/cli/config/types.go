// Package config provides configuration management for the macroscan CLI.
//
// Values are layered with koanf: built-in defaults, then macroscan.yaml,
// then MACROSCAN_* environment variables, then explicitly set flags.
package config

// Config holds all CLI configuration options.
type Config struct {
	Manifest        string   `koanf:"manifest"`
	OutputDir       string   `koanf:"output_dir"`
	CSVFile         string   `koanf:"csv_file"`
	DebugFile       string   `koanf:"debug_file"`
	DiagnosticsMode string   `koanf:"diagnostics_mode"`
	StatePath       string   `koanf:"state_path"`
	Index           bool     `koanf:"index"`
	Workers         int      `koanf:"workers"`
	ContinueOnError bool     `koanf:"continue_on_error"`
	Extensions      []string `koanf:"extensions"`
	Verbose         bool     `koanf:"verbose"`
	OutputFormat    string   `koanf:"output"`

	// ProjectRoot is the directory relative paths were resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultManifest        = "input.txt"
	DefaultOutputDir       = "Output"
	DefaultCSVFile         = "output.csv"
	DefaultDebugFile       = "debug_support.txt"
	DefaultDiagnosticsMode = "rewrite"
	DefaultStateFile       = ".macroscan/state.db"
	DefaultWorkers         = 4
	DefaultOutput          = "auto" // TTY=text, non-TTY=markdown
)

// configFileNames are the names searched for, in order.
var configFileNames = []string{"macroscan.yaml", "macroscan.yml"}

// pathFlags maps flags carrying paths to the config key they set. Flag paths
// are relative to the working directory, not the project root.
var pathFlags = map[string]string{
	"manifest":   "manifest",
	"output-dir": "output_dir",
	"state":      "state_path",
}
