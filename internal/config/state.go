package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/temirov/aiclip/internal/utils"
)

const (
	errorReadStateFormat   = "read state from %s: %w"
	errorDecodeStateFormat = "decode state from %s: %w"
	errorEncodeStateFormat = "encode state for %s: %w"
	errorWriteStateFormat  = "write state to %s: %w"
	errorStateDirFormat    = "create state directory %s: %w"
	stateIndentPrefix      = ""
	stateIndent            = "  "
)

// UserConfig holds the persisted user settings. JSON property names match the
// userconfig.json files written by earlier releases.
type UserConfig struct {
	LastFolder       string   `json:"LastFolder,omitempty"`
	CheckedFiles     []string `json:"CheckedFiles"`
	IncludeBinaries  bool     `json:"IncludeBinaries"`
	IgnorePatterns   []string `json:"IgnorePatterns"`
	PreviousProjects []string `json:"PreviousProjects"`
}

// DefaultUserConfig returns the configuration used when no state file is usable.
func DefaultUserConfig() UserConfig {
	return UserConfig{
		CheckedFiles:     []string{},
		IgnorePatterns:   utils.DefaultIgnorePatterns(),
		PreviousProjects: []string{},
	}
}

// EffectiveIgnorePatterns returns the configured ignore patterns, or the defaults when none are set.
func (userConfig UserConfig) EffectiveIgnorePatterns() []string {
	if len(utils.CleanPatternLines(userConfig.IgnorePatterns)) == 0 {
		return utils.DefaultIgnorePatterns()
	}
	return append([]string(nil), userConfig.IgnorePatterns...)
}

// RememberProject appends projectPath to the project history unless it is already recorded.
func (userConfig *UserConfig) RememberProject(projectPath string) {
	if projectPath == "" {
		return
	}
	userConfig.PreviousProjects = utils.AppendUnique(userConfig.PreviousProjects, projectPath)
}

// normalize fills nil slices and applies default ignore patterns.
func (userConfig UserConfig) normalize() UserConfig {
	result := userConfig
	if result.CheckedFiles == nil {
		result.CheckedFiles = []string{}
	}
	if result.PreviousProjects == nil {
		result.PreviousProjects = []string{}
	}
	if len(result.IgnorePatterns) == 0 {
		result.IgnorePatterns = utils.DefaultIgnorePatterns()
	}
	return result
}

// LoadUserConfig reads the state file at statePath. A missing file yields the
// defaults without error. An unreadable or malformed file yields the defaults
// together with the error so the caller can decide whether to report it.
//
// #nosec G304
func LoadUserConfig(statePath string) (UserConfig, error) {
	content, readError := os.ReadFile(statePath)
	if readError != nil {
		if os.IsNotExist(readError) {
			return DefaultUserConfig(), nil
		}
		return DefaultUserConfig(), fmt.Errorf(errorReadStateFormat, statePath, readError)
	}
	var loaded UserConfig
	if decodeError := json.Unmarshal(content, &loaded); decodeError != nil {
		return DefaultUserConfig(), fmt.Errorf(errorDecodeStateFormat, statePath, decodeError)
	}
	return loaded.normalize(), nil
}

// SaveUserConfig writes userConfig to statePath as indented JSON, creating the parent directory.
func SaveUserConfig(statePath string, userConfig UserConfig) error {
	encoded, encodeError := json.MarshalIndent(userConfig.normalize(), stateIndentPrefix, stateIndent)
	if encodeError != nil {
		return fmt.Errorf(errorEncodeStateFormat, statePath, encodeError)
	}
	stateDirectory := filepath.Dir(statePath)
	if makeDirectoryError := os.MkdirAll(stateDirectory, 0o755); makeDirectoryError != nil {
		return fmt.Errorf(errorStateDirFormat, stateDirectory, makeDirectoryError)
	}
	if writeError := os.WriteFile(statePath, append(encoded, '\n'), 0o600); writeError != nil {
		return fmt.Errorf(errorWriteStateFormat, statePath, writeError)
	}
	return nil
}
