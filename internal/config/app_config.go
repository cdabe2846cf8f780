package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/temirov/aiclip/internal/utils"
)

const (
	// DefaultFeedbackDelay is how long a copy feedback message stays visible.
	DefaultFeedbackDelay = 2 * time.Second
	// DefaultTokenModel is the tokenizer model used when none is configured.
	DefaultTokenModel = "gpt-4o"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds settings read from the YAML configuration files.
type ApplicationConfiguration struct {
	StateFile     string             `mapstructure:"state_file"`
	FeedbackDelay string             `mapstructure:"feedback_delay"`
	UseGitignore  *bool              `mapstructure:"use_gitignore"`
	Tokens        TokenConfiguration `mapstructure:"tokens"`
}

// TokenConfiguration controls token counting defaults.
type TokenConfiguration struct {
	Enabled *bool  `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// LoadApplicationConfiguration loads configuration from the global file and then the local or explicit file.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	localConfig, loadErr := loadConfigurationFromPath(localPath)
	if loadErr != nil {
		return ApplicationConfiguration{}, loadErr
	}
	merged = merged.Merge(localConfig)

	if merged.StateFile != "" && !filepath.IsAbs(merged.StateFile) {
		merged.StateFile = filepath.Join(workingDirectory, merged.StateFile)
	}

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) string {
	if explicitPath == "" {
		return filepath.Join(workingDirectory, utils.LocalConfigFileName)
	}
	if filepath.IsAbs(explicitPath) {
		return explicitPath
	}
	return filepath.Join(workingDirectory, explicitPath)
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	reader.SetConfigType("yaml")
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	if override.StateFile != "" {
		result.StateFile = override.StateFile
	}
	if override.FeedbackDelay != "" {
		result.FeedbackDelay = override.FeedbackDelay
	}
	if override.UseGitignore != nil {
		result.UseGitignore = cloneBool(override.UseGitignore)
	}
	result.Tokens = result.Tokens.merge(override.Tokens)
	return result
}

func (config TokenConfiguration) merge(override TokenConfiguration) TokenConfiguration {
	result := config
	if override.Enabled != nil {
		result.Enabled = cloneBool(override.Enabled)
	}
	if override.Model != "" {
		result.Model = override.Model
	}
	return result
}

// ResolvedStateFile returns the configured state file path or the default under the user's home.
func (config ApplicationConfiguration) ResolvedStateFile() (string, error) {
	if config.StateFile != "" {
		return config.StateFile, nil
	}
	homeDirectory, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory for state file: %w", err)
	}
	return filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.StateFileName), nil
}

// ResolvedFeedbackDelay returns the configured feedback delay, or DefaultFeedbackDelay
// when it is unset, unparsable or not positive.
func (config ApplicationConfiguration) ResolvedFeedbackDelay() time.Duration {
	if config.FeedbackDelay == "" {
		return DefaultFeedbackDelay
	}
	delay, parseErr := time.ParseDuration(config.FeedbackDelay)
	if parseErr != nil || delay <= 0 {
		return DefaultFeedbackDelay
	}
	return delay
}

// GitignoreEnabled reports whether the optional .gitignore layer is switched on.
func (config ApplicationConfiguration) GitignoreEnabled() bool {
	return config.UseGitignore != nil && *config.UseGitignore
}

// TokensEnabled reports whether payload token counting is switched on.
func (config ApplicationConfiguration) TokensEnabled() bool {
	return config.Tokens.Enabled != nil && *config.Tokens.Enabled
}

// TokenModel returns the configured tokenizer model or DefaultTokenModel.
func (config ApplicationConfiguration) TokenModel() string {
	if config.Tokens.Model == "" {
		return DefaultTokenModel
	}
	return config.Tokens.Model
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}
