package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/DonIsaac/keyhunter/internal/models"
	"github.com/DonIsaac/keyhunter/internal/utils"
	"github.com/spf13/viper"
)

const (
	// DefaultConfigFile is where a header config file is auto-generated if
	// the caller doesn't point --config at one.
	DefaultConfigFile = "configs/headers.yaml"

	// MaxConfigFileSize caps a header config file at 1MiB; anything larger
	// is almost certainly the wrong file pointed at by --config.
	MaxConfigFileSize = 1 * 1024 * 1024
)

// defaultHeaderTemplate is written to DefaultConfigFile the first time
// KeyHunter runs without one, so a caller has something to edit rather than
// an opaque "file not found". Kept as a literal instead of go:embed, the
// template is small and this avoids a second file that has to travel with
// the binary's source.
const defaultHeaderTemplate = `# KeyHunter HTTP header configuration.
# Headers listed here override the built-in defaults and are themselves
# overridden by any --header/-H flag on the command line.
headers:
  # User-Agent: "Mozilla/5.0 (KeyHunter)"
  # Authorization: "Bearer <token>"
`

// HeaderConfigLoader loads, validates, and parses a headers.yaml file.
type HeaderConfigLoader struct {
	configPath string
}

// NewHeaderConfigLoader builds a loader for configPath, or DefaultConfigFile
// if configPath is empty.
func NewHeaderConfigLoader(configPath string) *HeaderConfigLoader {
	if configPath == "" {
		configPath = DefaultConfigFile
	}
	return &HeaderConfigLoader{
		configPath: configPath,
	}
}

// EnsureConfigExists writes defaultHeaderTemplate to configPath if no file
// is there yet.
func (hcl *HeaderConfigLoader) EnsureConfigExists() error {
	if _, err := os.Stat(hcl.configPath); os.IsNotExist(err) {
		dir := filepath.Dir(hcl.configPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating config directory [%s]: %w", dir, err)
		}

		if err := os.WriteFile(hcl.configPath, []byte(defaultHeaderTemplate), 0644); err != nil {
			return fmt.Errorf("writing config file [%s]: %w", hcl.configPath, err)
		}
	}
	return nil
}

// ValidateFileSize rejects a config file larger than MaxConfigFileSize.
func (hcl *HeaderConfigLoader) ValidateFileSize() error {
	info, err := os.Stat(hcl.configPath)
	if err != nil {
		return fmt.Errorf("reading config file info [%s]: %w", hcl.configPath, err)
	}

	if info.Size() > MaxConfigFileSize {
		return &models.ConfigError{
			FilePath: hcl.configPath,
			Cause: fmt.Errorf("config file too large: %d bytes (max %d bytes)",
				info.Size(), MaxConfigFileSize),
		}
	}

	return nil
}

// LoadConfig loads and parses the header config file:
//  1. ensure the file exists (generate the template if not)
//  2. check its size
//  3. parse it as YAML via viper
//  4. bind it to HeaderConfig
//  5. normalize a nil Headers map to empty
func (hcl *HeaderConfigLoader) LoadConfig() (*models.HeaderConfig, error) {
	if err := hcl.EnsureConfigExists(); err != nil {
		return nil, err
	}

	if err := hcl.ValidateFileSize(); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(hcl.configPath)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		// A config file held by another process's write lock degrades to
		// the built-in defaults rather than failing the scan outright.
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EWOULDBLOCK) {
			utils.Warnf("config file locked [%s], falling back to defaults", hcl.configPath)
			return &models.HeaderConfig{
				Headers: make(map[string]string),
			}, nil
		}

		return nil, &models.ConfigError{
			FilePath: hcl.configPath,
			Cause:    err,
		}
	}

	var config models.HeaderConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, &models.ConfigError{
			FilePath: hcl.configPath,
			Cause:    fmt.Errorf("binding config: %w", err),
		}
	}

	if config.Headers == nil {
		config.Headers = make(map[string]string)
	}

	return &config, nil
}
