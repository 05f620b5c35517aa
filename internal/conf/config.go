// conf/config.go settings and loading
package conf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/beelab/dancereview/internal/dataset"
	"github.com/beelab/dancereview/internal/logger"
)

// ReviewSettings controls the review session.
type ReviewSettings struct {
	Directory string `mapstructure:"directory" yaml:"directory"` // review directory loaded on start, optional
	Rows      int    `mapstructure:"rows" yaml:"rows"`           // grid rows per page, 1-5
	Columns   int    `mapstructure:"columns" yaml:"columns"`     // grid columns per page, 1-10
	Category  string `mapstructure:"category" yaml:"category"`   // initial category label, tagged or untagged
}

// DatasetSettings names the files inside a review directory.
type DatasetSettings struct {
	DataFile    string `mapstructure:"datafile" yaml:"datafile"`
	TaggedDir   string `mapstructure:"taggeddir" yaml:"taggeddir"`
	UntaggedDir string `mapstructure:"untaggeddir" yaml:"untaggeddir"`
	VideoExt    string `mapstructure:"videoext" yaml:"videoext"`
}

// Layout converts the settings into a dataset layout.
func (d DatasetSettings) Layout() dataset.Layout {
	return dataset.Layout{
		DataFile:    d.DataFile,
		TaggedDir:   d.TaggedDir,
		UntaggedDir: d.UntaggedDir,
		VideoExt:    d.VideoExt,
	}
}

// WebServerSettings contains settings for the review API server.
type WebServerSettings struct {
	Listen string `mapstructure:"listen" yaml:"listen"` // host:port
}

// MySQLSettings holds the connection parameters for a MySQL journal.
type MySQLSettings struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     string `mapstructure:"port" yaml:"port"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Database string `mapstructure:"database" yaml:"database"`
}

// JournalSettings configures the correction journal.
type JournalSettings struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Driver  string        `mapstructure:"driver" yaml:"driver"` // sqlite or mysql
	Path    string        `mapstructure:"path" yaml:"path"`     // sqlite database file
	MySQL   MySQLSettings `mapstructure:"mysql" yaml:"mysql"`
}

// TelemetrySettings configures error reporting.
type TelemetrySettings struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	DSN         string `mapstructure:"dsn" yaml:"dsn"`
	Environment string `mapstructure:"environment" yaml:"environment"`
}

// Settings is the root of the configuration tree.
type Settings struct {
	Debug bool `mapstructure:"debug" yaml:"debug"`

	Review    ReviewSettings       `mapstructure:"review" yaml:"review"`
	Dataset   DatasetSettings      `mapstructure:"dataset" yaml:"dataset"`
	WebServer WebServerSettings    `mapstructure:"webserver" yaml:"webserver"`
	Journal   JournalSettings      `mapstructure:"journal" yaml:"journal"`
	Logging   logger.LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Telemetry TelemetrySettings    `mapstructure:"telemetry" yaml:"telemetry"`
}

// Category parses the configured initial category.
func (s *Settings) Category() (dataset.Category, error) {
	return dataset.ParseCategory(s.Review.Category)
}

const envPrefix = "DANCEREVIEW"

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads configuration into a new Settings. An explicit configFile must
// exist; otherwise config.yaml is searched in the default paths and its
// absence is not an error.
func Load(configFile string) (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(configFile); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if settings.Debug {
		settings.Logging.DefaultLevel = string(logger.LogLevelDebug)
		if settings.Logging.Console != nil {
			settings.Logging.Console.Level = string(logger.LogLevelDebug)
		}
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("error validating settings: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

func initViper(configFile string) error {
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaultConfig()

	if configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		return nil
	}

	viper.SetConfigName("config")
	for _, path := range GetDefaultConfigPaths() {
		viper.AddConfigPath(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Defaults and environment only.
			return nil
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}
	return nil
}

// GetDefaultConfigPaths returns the directories searched for config.yaml.
func GetDefaultConfigPaths() []string {
	paths := []string{"."}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "dancereview"))
	}
	return paths
}

// ConfigFileUsed returns the path of the file Load read, if any.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

// Setting returns the settings from the last successful Load.
func Setting() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// SaveYAMLConfig writes settings to configPath. The file is written to a
// temporary name in the same directory and renamed into place.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer os.Remove(tempFileName)

	if _, err := tempFile.Write(yamlData); err != nil {
		tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}
