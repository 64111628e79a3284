package config

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"path"

	"gomemscan/process"
	"gomemscan/scanner"

	"gopkg.in/yaml.v2"
)

const (
	configDir   string = ".gomemscan"
	configFile  string = "config.yml"
	historyFile string = ".memscan_history"
)

// Config defines all configuration options available to be set through the config file.
// Unset numeric fields keep the scanner defaults.
type Config struct {
	// Command aliases.
	Aliases map[string][]string `yaml:"aliases"`

	// Workers is the number of goroutines used by search and filter passes.
	Workers *int `yaml:"workers,omitempty"`
	// ChunkSize is the read size used while searching a region.
	ChunkSize *uint `yaml:"chunk-size,omitempty"`
	// PageSize is the block size of the filter page cache, a power of two.
	PageSize *uint `yaml:"page-size,omitempty"`
	// PageCacheEntries is the number of blocks each filter worker keeps.
	PageCacheEntries *int `yaml:"page-cache-entries,omitempty"`
	// BatchSize is the number of hits a worker buffers before spilling.
	BatchSize *int `yaml:"batch-size,omitempty"`
	// FlushThreshold is the number of hits a worker holds before
	// appending them to the shared result store.
	FlushThreshold *int `yaml:"flush-threshold,omitempty"`

	// PrintLimit caps the number of results printed, 0 prints all of them.
	PrintLimit int `yaml:"print-limit"`

	// NoColor disables the coloured prompt.
	NoColor bool `yaml:"no-color"`
}

// Options converts the configuration into scanner options
func (c *Config) Options() []scanner.Option {
	var opts []scanner.Option
	if c.Workers != nil {
		opts = append(opts, scanner.WithWorkers(*c.Workers))
	}
	if c.ChunkSize != nil {
		opts = append(opts, scanner.WithChunkSize(process.ProcessMemorySize(*c.ChunkSize)))
	}
	if c.PageSize != nil {
		opts = append(opts, scanner.WithPageSize(process.ProcessMemorySize(*c.PageSize)))
	}
	if c.PageCacheEntries != nil {
		opts = append(opts, scanner.WithPageCacheEntries(*c.PageCacheEntries))
	}
	if c.BatchSize != nil {
		opts = append(opts, scanner.WithBatchSize(*c.BatchSize))
	}
	if c.FlushThreshold != nil {
		opts = append(opts, scanner.WithFlushThreshold(*c.FlushThreshold))
	}
	if c.PrintLimit != 0 {
		opts = append(opts, scanner.WithPrintLimit(c.PrintLimit))
	}
	return opts
}

// LoadConfig attempts to populate a Config object from the config.yml file
// in the user's config directory, creating a commented default file when
// there is none. Problems are reported on stdout and yield an empty Config.
func LoadConfig() *Config {
	err := createConfigPath()
	if err != nil {
		fmt.Printf("Could not create config directory: %v.\n", err)
		return &Config{}
	}
	fullConfigFile, err := GetConfigFilePath(configFile)
	if err != nil {
		fmt.Printf("Unable to get config file path: %v.\n", err)
		return &Config{}
	}

	if _, err := os.Stat(fullConfigFile); os.IsNotExist(err) {
		if err := createDefaultConfig(fullConfigFile); err != nil {
			fmt.Printf("Error creating default config file: %v\n", err)
			return &Config{}
		}
	}

	c, err := LoadConfigFile(fullConfigFile)
	if err != nil {
		fmt.Printf("%v.\n", err)
		return &Config{}
	}
	return c
}

// LoadConfigFile reads the configuration at fullConfigFile
func LoadConfigFile(fullConfigFile string) (*Config, error) {
	f, err := os.Open(fullConfigFile)
	if err != nil {
		return nil, fmt.Errorf("unable to open config file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("unable to read config data: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unable to decode config file: %w", err)
	}
	return &c, nil
}

// SaveConfig will marshal and save the config struct to fullConfigFile
func SaveConfig(conf *Config, fullConfigFile string) error {
	out, err := yaml.Marshal(*conf)
	if err != nil {
		return err
	}

	f, err := os.Create(fullConfigFile)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.Write(out)
	return err
}

func createDefaultConfig(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create config file: %w", err)
	}
	defer f.Close()

	if err := writeDefaultConfig(f); err != nil {
		return fmt.Errorf("unable to write default configuration: %w", err)
	}
	return nil
}

func writeDefaultConfig(w io.Writer) error {
	_, err := io.WriteString(w,
		`# Configuration file for memscan.

# This is the default configuration file. Available options are provided, but disabled.
# Delete the leading hash mark to enable an item.

# Provided aliases will be added to the default aliases for a given command.
aliases:
  # command: ["alias1", "alias2"]

# Number of goroutines used by search and filter passes.
# workers: 4

# Bytes read at a time while searching a region.
# chunk-size: 32768

# Block size of the filter page cache, must be a power of two.
# page-size: 4096

# Blocks kept by each filter worker.
# page-cache-entries: 32

# Hits buffered by a worker before they move to its local buffer, and hits
# held locally before they are appended to the result store.
# batch-size: 256
# flush-threshold: 65536

# Maximum number of results printed by scan, 0 prints all of them.
print-limit: 0

# Uncomment the following line to disable the coloured prompt.
# no-color: true
`)
	return err
}

// createConfigPath creates the directory structure at which all config files are saved.
func createConfigPath() error {
	path, err := GetConfigFilePath("")
	if err != nil {
		return err
	}
	return os.MkdirAll(path, 0700)
}

// GetConfigFilePath gets the full path to the given config file name.
func GetConfigFilePath(file string) (string, error) {
	userHomeDir := "."
	usr, err := user.Current()
	if err == nil {
		userHomeDir = usr.HomeDir
	}
	return path.Join(userHomeDir, configDir, file), nil
}

// GetHistoryFilePath is where the terminal keeps its command history
func GetHistoryFilePath() (string, error) {
	return GetConfigFilePath(historyFile)
}
