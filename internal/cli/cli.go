// Package cli provides the command line interface.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dirscope/internal/config"
	"dirscope/internal/ignore"
	"dirscope/internal/services/clipboard"
	"dirscope/internal/structure"
	"dirscope/internal/tokenizer"
	"dirscope/internal/types"
	"dirscope/internal/utils"
)

const (
	maxItemsFlagName    = "max-items"
	ignoreDirFlagName   = "ignore-dir"
	includeFlagName     = "include"
	noGitignoreFlagName = "no-gitignore"
	noIgnoreFlagName    = "no-ignore"
	formatFlagName      = "format"
	tokensFlagName      = "tokens"
	modelFlagName       = "model"
	copyFlagName        = "copy"
	versionFlagName     = "version"
	forceFlagName       = "force"
	globalFlagName      = "global"

	versionTemplate = "dirscope version: %s\n"
	defaultPath     = "."

	rootUse              = "dirscope"
	rootShortDescription = "dirscope command line interface"
	rootLongDescription  = `dirscope renders a compact summary of a directory tree, capped at a global
item budget, for pasting into an LLM prompt or serving to an agent.
Truncated or ignored content is marked with ` + structure.TruncationIndicator + `.`

	structureUse              = "structure [path]"
	structureAlias            = "s"
	structureShortDescription = "summarize a directory tree (" + structureAlias + ")"
	// structureLongDescription provides detailed help for the structure command.
	structureLongDescription = `Render a bounded summary of the directory at path (default ".").
Enumeration is breadth-first under one shared item budget; ignored folders
appear as a single placeholder line and are never expanded.`
	// structureUsageExample demonstrates structure command usage.
	structureUsageExample = `  # Summarize the current project with the default budget
  dirscope structure

  # Allow 50 items and only list Go files
  dirscope structure --max-items 50 --include '*.go' .

  # Emit the tree as JSON and copy the result
  dirscope s --format json --copy ./cmd`

	configUse                  = "config"
	configShortDescription     = "manage configuration"
	configInitUse              = "init"
	configInitShortDescription = "write a default configuration file"

	maxItemsFlagDescription    = "maximum accepted files plus folders across the whole tree"
	ignoreDirFlagDescription   = "folder name to treat as ignored (repeatable, replaces defaults)"
	includeFlagDescription     = "glob pattern a file name must match to be listed"
	noGitignoreFlagDescription = "do not consult .gitignore rules"
	noIgnoreFlagDescription    = "do not consult the " + utils.IgnoreFileName + " file"
	formatFlagDescription      = "output format (text or json)"
	tokensFlagDescription      = "append an approximate token count of the summary"
	modelFlagDescription       = "tokenizer model used for the token estimate"
	copyFlagDescription        = "copy the summary to the system clipboard"
	versionFlagDescription     = "display application version"
	forceFlagDescription       = "overwrite an existing configuration file"
	globalFlagDescription      = "write the global configuration instead of the local one"

	defaultTokenizerModelName = "gpt-4o"

	invalidFormatMessage     = "invalid format value '%s'"
	warningClipboardFormat   = "Warning: unable to copy to clipboard: %v\n"
	tokenEstimateLineFormat  = "Approximate tokens: %d (%s)\n"
	renderTreeJSONErrFormat  = "encoding tree for %s: %w"
	workingDirectoryErrorFmt = "unable to determine working directory: %w"
)

// Execute runs the dirscope application.
func Execute() error {
	rootCommand := createRootCommand()
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand() *cobra.Command {
	var showVersion bool

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
		PersistentPreRun: func(command *cobra.Command, arguments []string) {
			if showVersion {
				fmt.Printf(versionTemplate, utils.GetApplicationVersion())
				os.Exit(0)
			}
		},
	}
	rootCommand.PersistentFlags().BoolVar(&showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.AddCommand(
		createStructureCommand(),
		createMCPCommand(),
		createConfigCommand(),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

// structureFlags stores the flag values of the structure command.
type structureFlags struct {
	maxItems          int
	ignoredFolders    []string
	includePattern    string
	disableGitignore  bool
	disableIgnoreFile bool
	format            string
	tokensEnabled     bool
	tokenModel        string
	copyEnabled       bool
}

// createStructureCommand returns the structure subcommand.
func createStructureCommand() *cobra.Command {
	var flags structureFlags

	structureCommand := &cobra.Command{
		Use:     structureUse,
		Aliases: []string{structureAlias},
		Short:   structureShortDescription,
		Long:    structureLongDescription,
		Example: structureUsageExample,
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			directoryPath := defaultPath
			if len(arguments) == 1 {
				directoryPath = arguments[0]
			}
			return runStructureCommand(command, directoryPath, flags)
		},
	}

	structureCommand.Flags().IntVar(&flags.maxItems, maxItemsFlagName, 0, maxItemsFlagDescription)
	structureCommand.Flags().StringArrayVar(&flags.ignoredFolders, ignoreDirFlagName, nil, ignoreDirFlagDescription)
	structureCommand.Flags().StringVar(&flags.includePattern, includeFlagName, "", includeFlagDescription)
	structureCommand.Flags().BoolVar(&flags.disableGitignore, noGitignoreFlagName, false, noGitignoreFlagDescription)
	structureCommand.Flags().BoolVar(&flags.disableIgnoreFile, noIgnoreFlagName, false, noIgnoreFlagDescription)
	structureCommand.Flags().StringVar(&flags.format, formatFlagName, "", formatFlagDescription)
	structureCommand.Flags().BoolVar(&flags.tokensEnabled, tokensFlagName, false, tokensFlagDescription)
	structureCommand.Flags().StringVar(&flags.tokenModel, modelFlagName, defaultTokenizerModelName, modelFlagDescription)
	structureCommand.Flags().BoolVar(&flags.copyEnabled, copyFlagName, false, copyFlagDescription)
	return structureCommand
}

// resolvedStructureSettings is the effective structure configuration after
// overlaying changed flags on the loaded configuration files.
type resolvedStructureSettings struct {
	maxItems          int
	ignoredFolders    []string
	includePattern    string
	disableGitignore  bool
	disableIgnoreFile bool
	format            string
	tokensEnabled     bool
	tokenModel        string
	copyEnabled       bool
}

// resolveStructureSettings merges configuration defaults with explicitly set
// flags; a flag the user changed always wins over the configuration files.
func resolveStructureSettings(configuration config.StructureConfiguration, flags structureFlags, changed func(flagName string) bool) resolvedStructureSettings {
	settings := resolvedStructureSettings{
		maxItems:       structure.DefaultMaxItems,
		ignoredFolders: nil,
		format:         types.FormatText,
		tokenModel:     defaultTokenizerModelName,
	}
	if configuration.MaxItems != nil {
		settings.maxItems = *configuration.MaxItems
	}
	if len(configuration.IgnoredFolders) > 0 {
		settings.ignoredFolders = configuration.IgnoredFolders
	}
	if configuration.FileIncludePattern != "" {
		settings.includePattern = configuration.FileIncludePattern
	}
	if configuration.UseGitignore != nil {
		settings.disableGitignore = !*configuration.UseGitignore
	}
	if configuration.UseIgnoreFile != nil {
		settings.disableIgnoreFile = !*configuration.UseIgnoreFile
	}
	if configuration.Format != "" {
		settings.format = configuration.Format
	}
	if configuration.Tokens.Enabled != nil {
		settings.tokensEnabled = *configuration.Tokens.Enabled
	}
	if configuration.Tokens.Model != "" {
		settings.tokenModel = configuration.Tokens.Model
	}
	if configuration.Clipboard != nil {
		settings.copyEnabled = *configuration.Clipboard
	}

	if changed(maxItemsFlagName) {
		settings.maxItems = flags.maxItems
	}
	if changed(ignoreDirFlagName) {
		settings.ignoredFolders = flags.ignoredFolders
	}
	if changed(includeFlagName) {
		settings.includePattern = flags.includePattern
	}
	if changed(noGitignoreFlagName) {
		settings.disableGitignore = flags.disableGitignore
	}
	if changed(noIgnoreFlagName) {
		settings.disableIgnoreFile = flags.disableIgnoreFile
	}
	if changed(formatFlagName) {
		settings.format = flags.format
	}
	if changed(tokensFlagName) {
		settings.tokensEnabled = flags.tokensEnabled
	}
	if changed(modelFlagName) {
		settings.tokenModel = flags.tokenModel
	}
	if changed(copyFlagName) {
		settings.copyEnabled = flags.copyEnabled
	}
	return settings
}

// structureOptions converts resolved settings into reader options rooted at
// the given absolute path.
func (settings resolvedStructureSettings) structureOptions(absoluteRootPath string, logger *zap.Logger) structure.Options {
	var discovery structure.DiscoveryService
	if !settings.disableGitignore || !settings.disableIgnoreFile {
		discovery = ignore.NewService(absoluteRootPath)
	}
	return structure.Options{
		MaxItems:          settings.maxItems,
		IgnoredFolders:    settings.ignoredFolders,
		FileInclude:       structure.GlobIncludePredicate(settings.includePattern),
		FileService:       discovery,
		DisableGitIgnore:  settings.disableGitignore,
		DisableToolIgnore: settings.disableIgnoreFile,
		Logger:            logger,
	}
}

// runStructureCommand executes one summarizer invocation for the CLI.
func runStructureCommand(command *cobra.Command, directoryPath string, flags structureFlags) error {
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return fmt.Errorf(workingDirectoryErrorFmt, workingDirectoryError)
	}
	applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{WorkingDirectory: workingDirectory})
	if configurationError != nil {
		return configurationError
	}
	settings := resolveStructureSettings(applicationConfiguration.Structure, flags, command.Flags().Changed)

	formatLower := strings.ToLower(settings.format)
	if formatLower != types.FormatText && formatLower != types.FormatJSON {
		return fmt.Errorf(invalidFormatMessage, settings.format)
	}

	logger, loggerError := utils.NewApplicationLogger()
	if loggerError != nil {
		return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
	}
	defer logger.Sync()

	absoluteRootPath, absolutePathError := filepath.Abs(directoryPath)
	if absolutePathError != nil {
		return fmt.Errorf("resolving %s: %w", directoryPath, absolutePathError)
	}
	options := settings.structureOptions(absoluteRootPath, logger)

	var output string
	if formatLower == types.FormatJSON {
		rootNode, readError := structure.Read(directoryPath, options)
		if readError != nil {
			return readError
		}
		encoded, encodeError := json.MarshalIndent(rootNode, "", "  ")
		if encodeError != nil {
			return fmt.Errorf(renderTreeJSONErrFormat, directoryPath, encodeError)
		}
		output = string(encoded) + "\n"
	} else {
		output = structure.Summarize(directoryPath, options)
	}

	if settings.tokensEnabled {
		counter, resolvedModel, counterError := tokenizer.NewCounter(tokenizer.Config{Model: settings.tokenModel})
		if counterError != nil {
			return counterError
		}
		tokenCount, countError := counter.CountString(output)
		if countError != nil {
			return countError
		}
		output += fmt.Sprintf(tokenEstimateLineFormat, tokenCount, resolvedModel)
	}

	if settings.copyEnabled {
		if copyError := clipboard.NewService().Copy(output); copyError != nil {
			fmt.Fprintf(os.Stderr, warningClipboardFormat, copyError)
		}
	}

	fmt.Print(output)
	return nil
}

// createConfigCommand returns the config subcommand with its init action.
func createConfigCommand() *cobra.Command {
	configCommand := &cobra.Command{
		Use:   configUse,
		Short: configShortDescription,
	}

	var writeGlobal bool
	var forceOverwrite bool
	initCommand := &cobra.Command{
		Use:   configInitUse,
		Short: configInitShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if writeGlobal {
				target = config.InitTargetGlobal
			}
			writtenPath, initializeError := config.InitializeConfiguration(config.InitOptions{
				Target: target,
				Force:  forceOverwrite,
			})
			if initializeError != nil {
				return initializeError
			}
			fmt.Println(writtenPath)
			return nil
		},
	}
	initCommand.Flags().BoolVar(&writeGlobal, globalFlagName, false, globalFlagDescription)
	initCommand.Flags().BoolVar(&forceOverwrite, forceFlagName, false, forceFlagDescription)

	configCommand.AddCommand(initCommand)
	return configCommand
}
