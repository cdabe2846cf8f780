package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/temirov/aiclip/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes .aiclip.yaml into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes config.yaml into ~/.aiclip.
	InitTargetGlobal InitTarget = "global"

	defaultConfigurationTemplate = `# aiclip application settings
# state_file: path of the JSON file holding the last folder, checked files and options
state_file: ""
feedback_delay: 2s
use_gitignore: false
tokens:
  enabled: false
  model: gpt-4o
`

	errorInitWorkingDirectoryFormat = "determine working directory for configuration: %w"
	errorInitHomeDirectoryFormat    = "resolve home directory for configuration: %w"
	errorInitCreateDirectoryFormat  = "create configuration directory %s: %w"
	errorInitUnsupportedTarget      = "unsupported init target %q"
	errorInitExistsFormat           = "configuration file already exists at %s (use --force to overwrite)"
	errorInitInspectFormat          = "inspect configuration path %s: %w"
	errorInitWriteFormat            = "write configuration to %s: %w"
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
}

// InitializeConfiguration writes the default configuration to the requested target
// and returns the path it wrote. An existing file is replaced only with Force.
func InitializeConfiguration(options InitOptions) (string, error) {
	destinationPath, resolveError := initDestination(options)
	if resolveError != nil {
		return "", resolveError
	}
	_, statError := os.Stat(destinationPath)
	switch {
	case statError == nil && !options.Force:
		return "", fmt.Errorf(errorInitExistsFormat, destinationPath)
	case statError != nil && !os.IsNotExist(statError):
		return "", fmt.Errorf(errorInitInspectFormat, destinationPath, statError)
	}
	if writeError := os.WriteFile(destinationPath, []byte(defaultConfigurationTemplate), 0o600); writeError != nil {
		return "", fmt.Errorf(errorInitWriteFormat, destinationPath, writeError)
	}
	return destinationPath, nil
}

// initDestination resolves the file written for options.Target, creating ~/.aiclip when needed.
func initDestination(options InitOptions) (string, error) {
	switch options.Target {
	case InitTargetLocal, "":
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			currentDirectory, workingDirectoryError := os.Getwd()
			if workingDirectoryError != nil {
				return "", fmt.Errorf(errorInitWorkingDirectoryFormat, workingDirectoryError)
			}
			workingDirectory = currentDirectory
		}
		return filepath.Join(workingDirectory, utils.LocalConfigFileName), nil
	case InitTargetGlobal:
		homeDirectory, homeDirectoryError := os.UserHomeDir()
		if homeDirectoryError != nil {
			return "", fmt.Errorf(errorInitHomeDirectoryFormat, homeDirectoryError)
		}
		configurationDirectory := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName)
		if makeDirectoryError := os.MkdirAll(configurationDirectory, 0o755); makeDirectoryError != nil {
			return "", fmt.Errorf(errorInitCreateDirectoryFormat, configurationDirectory, makeDirectoryError)
		}
		return filepath.Join(configurationDirectory, utils.ConfigFileName), nil
	default:
		return "", fmt.Errorf(errorInitUnsupportedTarget, options.Target)
	}
}
