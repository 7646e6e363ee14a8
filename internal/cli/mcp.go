package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dirscope/internal/config"
	"dirscope/internal/ignore"
	"dirscope/internal/services/mcp"
	"dirscope/internal/structure"
	"dirscope/internal/types"
	"dirscope/internal/utils"
)

const (
	mcpUse              = "mcp"
	mcpShortDescription = "serve the structure command to agent frontends"
	// mcpLongDescription provides detailed help for the mcp command.
	mcpLongDescription = `Start a local HTTP server exposing the structure command.
Clients discover commands via GET /capabilities and invoke them via
POST /commands/<name> with a JSON body mirroring the CLI options.`

	addressFlagName        = "address"
	addressFlagDescription = "listen address (host:port, port 0 picks a free port)"

	mcpListeningFormat = "dirscope command server listening on %s\n"

	structureCapabilityDescription = "Render a budget-capped summary of a directory tree"

	errorPathRequiredMessage = "path is required"
)

// structureRequest mirrors the structure command options for HTTP clients.
// Pointer fields distinguish omitted values from explicit ones.
type structureRequest struct {
	Path               string   `json:"path"`
	MaxItems           *int     `json:"maxItems"`
	IgnoredFolders     []string `json:"ignoredFolders"`
	FileIncludePattern string   `json:"fileIncludePattern"`
	RespectGitIgnore   *bool    `json:"respectGitIgnore"`
	RespectToolIgnore  *bool    `json:"respectToolIgnore"`
}

// createMCPCommand returns the mcp subcommand.
func createMCPCommand() *cobra.Command {
	var listenAddress string

	mcpCommand := &cobra.Command{
		Use:   mcpUse,
		Short: mcpShortDescription,
		Long:  mcpLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			return runMCPCommand(command, listenAddress)
		},
	}
	mcpCommand.Flags().StringVar(&listenAddress, addressFlagName, "", addressFlagDescription)
	return mcpCommand
}

// runMCPCommand starts the command server and blocks until interrupted.
func runMCPCommand(command *cobra.Command, listenAddress string) error {
	applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{})
	if configurationError != nil {
		return configurationError
	}
	if listenAddress == "" {
		listenAddress = applicationConfiguration.MCP.Address
	}

	logger, loggerError := utils.NewApplicationLogger()
	if loggerError != nil {
		return fmt.Errorf(utils.LoggerInitializationFailedMessageFormat, loggerError)
	}
	defer logger.Sync()

	server := mcp.NewServer(mcp.Config{
		Address: listenAddress,
		Capabilities: []mcp.Capability{
			{Name: types.CommandStructure, Description: structureCapabilityDescription},
		},
		Executors: map[string]mcp.CommandExecutor{
			types.CommandStructure: mcp.CommandExecutorFunc(makeStructureExecutor(logger)),
		},
	})

	runContext, stop := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Run(runContext, func(boundAddress string) {
		fmt.Fprintf(command.OutOrStdout(), mcpListeningFormat, boundAddress)
	})
}

// makeStructureExecutor builds the executor behind POST /commands/structure.
func makeStructureExecutor(logger *zap.Logger) func(context.Context, mcp.CommandRequest) (mcp.CommandResponse, error) {
	return func(executionContext context.Context, request mcp.CommandRequest) (mcp.CommandResponse, error) {
		options, directoryPath, decodeError := decodeStructureRequest(request.Payload, logger)
		if decodeError != nil {
			return mcp.CommandResponse{}, mcp.NewRequestError(http.StatusBadRequest, decodeError)
		}
		return mcp.CommandResponse{
			Output: structure.Summarize(directoryPath, options),
			Format: types.FormatText,
		}, nil
	}
}

// decodeStructureRequest maps a JSON payload onto reader options.
func decodeStructureRequest(payload json.RawMessage, logger *zap.Logger) (structure.Options, string, error) {
	var request structureRequest
	if len(payload) > 0 {
		if unmarshalError := json.Unmarshal(payload, &request); unmarshalError != nil {
			return structure.Options{}, "", fmt.Errorf("decode structure request: %w", unmarshalError)
		}
	}
	if request.Path == "" {
		return structure.Options{}, "", fmt.Errorf(errorPathRequiredMessage)
	}

	absoluteRootPath, absolutePathError := filepath.Abs(request.Path)
	if absolutePathError != nil {
		return structure.Options{}, "", fmt.Errorf("resolving %s: %w", request.Path, absolutePathError)
	}

	options := structure.Options{
		IgnoredFolders: request.IgnoredFolders,
		FileInclude:    structure.GlobIncludePredicate(request.FileIncludePattern),
		Logger:         logger,
	}
	if request.MaxItems != nil {
		options.MaxItems = *request.MaxItems
	}
	if request.RespectGitIgnore != nil {
		options.DisableGitIgnore = !*request.RespectGitIgnore
	}
	if request.RespectToolIgnore != nil {
		options.DisableToolIgnore = !*request.RespectToolIgnore
	}
	if !options.DisableGitIgnore || !options.DisableToolIgnore {
		options.FileService = ignore.NewService(absoluteRootPath)
	}
	return options, request.Path, nil
}
