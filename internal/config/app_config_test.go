package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"dirscope/internal/config"
)

const (
	globalConfigurationContent = `structure:
  max_items: 10
  tokens:
    model: gpt-4o
mcp:
  address: 127.0.0.1:7777
`
	localConfigurationContent = `structure:
  max_items: 5
  ignored_folders:
    - vendor
  use_gitignore: false
`
)

func writeConfigurationFile(testingHandle *testing.T, path string, content string) {
	testingHandle.Helper()
	if makeDirError := os.MkdirAll(filepath.Dir(path), 0o755); makeDirError != nil {
		testingHandle.Fatalf("mkdir for %s: %v", path, makeDirError)
	}
	if writeError := os.WriteFile(path, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("writing %s: %v", path, writeError)
	}
}

func TestLoadApplicationConfigurationMergesGlobalAndLocal(testingHandle *testing.T) {
	homeDirectory := testingHandle.TempDir()
	testingHandle.Setenv("HOME", homeDirectory)
	workingDirectory := testingHandle.TempDir()

	writeConfigurationFile(testingHandle, filepath.Join(homeDirectory, ".dirscope", "config.yaml"), globalConfigurationContent)
	writeConfigurationFile(testingHandle, filepath.Join(workingDirectory, ".dirscope.yaml"), localConfigurationContent)

	loaded, loadError := config.LoadApplicationConfiguration(config.LoadOptions{WorkingDirectory: workingDirectory})
	if loadError != nil {
		testingHandle.Fatalf("LoadApplicationConfiguration error: %v", loadError)
	}

	if loaded.Structure.MaxItems == nil || *loaded.Structure.MaxItems != 5 {
		testingHandle.Fatalf("local max_items must win: %+v", loaded.Structure.MaxItems)
	}
	if loaded.Structure.Tokens.Model != "gpt-4o" {
		testingHandle.Fatalf("global token model must survive the merge: %q", loaded.Structure.Tokens.Model)
	}
	if len(loaded.Structure.IgnoredFolders) != 1 || loaded.Structure.IgnoredFolders[0] != "vendor" {
		testingHandle.Fatalf("unexpected ignored folders: %v", loaded.Structure.IgnoredFolders)
	}
	if loaded.Structure.UseGitignore == nil || *loaded.Structure.UseGitignore {
		testingHandle.Fatalf("use_gitignore false must be preserved")
	}
	if loaded.MCP.Address != "127.0.0.1:7777" {
		testingHandle.Fatalf("unexpected mcp address: %q", loaded.MCP.Address)
	}
}

func TestLoadApplicationConfigurationWithoutFiles(testingHandle *testing.T) {
	testingHandle.Setenv("HOME", testingHandle.TempDir())
	workingDirectory := testingHandle.TempDir()

	loaded, loadError := config.LoadApplicationConfiguration(config.LoadOptions{WorkingDirectory: workingDirectory})
	if loadError != nil {
		testingHandle.Fatalf("missing configuration files must not fail: %v", loadError)
	}
	if loaded.Structure.MaxItems != nil || loaded.Structure.UseGitignore != nil {
		testingHandle.Fatalf("expected an empty configuration, got %+v", loaded)
	}
}

func TestInitializeConfigurationLocal(testingHandle *testing.T) {
	workingDirectory := testingHandle.TempDir()

	writtenPath, initializeError := config.InitializeConfiguration(config.InitOptions{
		Target:           config.InitTargetLocal,
		WorkingDirectory: workingDirectory,
	})
	if initializeError != nil {
		testingHandle.Fatalf("InitializeConfiguration error: %v", initializeError)
	}
	if writtenPath != filepath.Join(workingDirectory, ".dirscope.yaml") {
		testingHandle.Fatalf("unexpected destination: %s", writtenPath)
	}

	_, secondError := config.InitializeConfiguration(config.InitOptions{
		Target:           config.InitTargetLocal,
		WorkingDirectory: workingDirectory,
	})
	if secondError == nil {
		testingHandle.Fatalf("expected an error without --force")
	}

	_, forcedError := config.InitializeConfiguration(config.InitOptions{
		Target:           config.InitTargetLocal,
		WorkingDirectory: workingDirectory,
		Force:            true,
	})
	if forcedError != nil {
		testingHandle.Fatalf("forced overwrite must succeed: %v", forcedError)
	}

	testingHandle.Setenv("HOME", testingHandle.TempDir())
	loaded, loadError := config.LoadApplicationConfiguration(config.LoadOptions{WorkingDirectory: workingDirectory})
	if loadError != nil {
		testingHandle.Fatalf("loading the template must succeed: %v", loadError)
	}
	if loaded.Structure.MaxItems == nil || *loaded.Structure.MaxItems != 20 {
		testingHandle.Fatalf("template default max_items mismatch: %+v", loaded.Structure.MaxItems)
	}
	if len(loaded.Structure.IgnoredFolders) != 3 {
		testingHandle.Fatalf("template default ignored folders mismatch: %v", loaded.Structure.IgnoredFolders)
	}
}
