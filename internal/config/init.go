package config

import (
	"fmt"
	"os"
	"path/filepath"

	"dirscope/internal/utils"
)

// InitTarget identifies where configuration should be initialized.
type InitTarget string

const (
	// InitTargetLocal writes configuration into the working directory.
	InitTargetLocal InitTarget = "local"
	// InitTargetGlobal writes configuration into the global configuration directory.
	InitTargetGlobal InitTarget = "global"

	defaultConfigurationTemplate = `structure:
  max_items: 20
  ignored_folders:
    - node_modules
    - .git
    - dist
  file_include_pattern: ""
  use_gitignore: true
  use_ignore: true
  format: text
  tokens:
    enabled: false
    model: gpt-4o
  clipboard: false
mcp:
  address: 127.0.0.1:0
`
)

// InitOptions controls how configuration initialization behaves.
type InitOptions struct {
	Target           InitTarget
	Force            bool
	WorkingDirectory string
}

// InitializeConfiguration writes the default configuration to the requested
// target and returns the written path.
func InitializeConfiguration(options InitOptions) (string, error) {
	target := options.Target
	if target == "" {
		target = InitTargetLocal
	}

	var destinationPath string
	switch target {
	case InitTargetLocal:
		workingDirectory := options.WorkingDirectory
		if workingDirectory == "" {
			currentDirectory, workingDirectoryError := os.Getwd()
			if workingDirectoryError != nil {
				return "", fmt.Errorf("determine working directory for configuration: %w", workingDirectoryError)
			}
			workingDirectory = currentDirectory
		}
		destinationPath = filepath.Join(workingDirectory, utils.ConfigFileName)
	case InitTargetGlobal:
		homeDirectory, homeError := os.UserHomeDir()
		if homeError != nil {
			return "", fmt.Errorf("resolve home directory for configuration: %w", homeError)
		}
		configurationDirectory := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName)
		if makeDirectoryError := os.MkdirAll(configurationDirectory, 0o755); makeDirectoryError != nil {
			return "", fmt.Errorf("create configuration directory %s: %w", configurationDirectory, makeDirectoryError)
		}
		destinationPath = filepath.Join(configurationDirectory, utils.GlobalConfigFileName)
	default:
		return "", fmt.Errorf("unsupported configuration target %q", target)
	}

	if !options.Force {
		if _, statError := os.Stat(destinationPath); statError == nil {
			return "", fmt.Errorf("configuration %s already exists; use --force to overwrite", destinationPath)
		}
	}

	if writeError := os.WriteFile(destinationPath, []byte(defaultConfigurationTemplate), 0o644); writeError != nil {
		return "", fmt.Errorf("write configuration %s: %w", destinationPath, writeError)
	}
	return destinationPath, nil
}
