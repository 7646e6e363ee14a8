// Package mcp exposes dirscope commands to agent frontends over a small
// local HTTP interface: a capabilities listing plus one POST endpoint per
// registered command.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	defaultListenAddress    = "127.0.0.1:0"
	defaultShutdownDuration = 5 * time.Second

	capabilitiesPath = "/capabilities"
	commandsPrefix   = "/commands/"

	headerContentType = "Content-Type"
	mimeTypeJSON      = "application/json"

	errorFieldName       = "error"
	errorCommandNotFound = "command not found"
)

// Capability describes a command exposed by the server.
type Capability struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// CommandRequest carries the raw JSON payload supplied by a client.
type CommandRequest struct {
	Payload json.RawMessage
}

// CommandResponse contains the outcome of a command execution.
type CommandResponse struct {
	Output string `json:"output"`
	Format string `json:"format"`
}

// CommandExecutor executes one registered command.
type CommandExecutor interface {
	Execute(ctx context.Context, request CommandRequest) (CommandResponse, error)
}

// CommandExecutorFunc adapts a function into a CommandExecutor.
type CommandExecutorFunc func(context.Context, CommandRequest) (CommandResponse, error)

// Execute invokes the underlying function.
func (executor CommandExecutorFunc) Execute(ctx context.Context, request CommandRequest) (CommandResponse, error) {
	return executor(ctx, request)
}

// RequestError wraps an executor failure with the HTTP status to report.
type RequestError struct {
	statusCode int
	wrapped    error
}

// NewRequestError creates a RequestError carrying the given status code.
func NewRequestError(statusCode int, wrapped error) error {
	if wrapped == nil {
		return nil
	}
	return RequestError{statusCode: statusCode, wrapped: wrapped}
}

// Error returns the wrapped error's message.
func (requestError RequestError) Error() string {
	return requestError.wrapped.Error()
}

// Unwrap exposes the wrapped error.
func (requestError RequestError) Unwrap() error {
	return requestError.wrapped
}

// StatusCode reports the HTTP status associated with the failure.
func (requestError RequestError) StatusCode() int {
	return requestError.statusCode
}

// Config defines runtime options for the command server.
type Config struct {
	Address         string
	Capabilities    []Capability
	Executors       map[string]CommandExecutor
	ShutdownTimeout time.Duration
}

// Server serves capability metadata and executes commands over HTTP.
type Server struct {
	config Config
}

// NewServer creates a Server with defaults applied.
func NewServer(configuration Config) Server {
	normalized := configuration
	if normalized.Address == "" {
		normalized.Address = defaultListenAddress
	}
	if normalized.ShutdownTimeout <= 0 {
		normalized.ShutdownTimeout = defaultShutdownDuration
	}
	if normalized.Capabilities == nil {
		normalized.Capabilities = []Capability{}
	}
	if normalized.Executors == nil {
		normalized.Executors = map[string]CommandExecutor{}
	}
	return Server{config: normalized}
}

// Run starts the server and blocks until the provided context is canceled.
// The notify callback receives the bound address once the listener is active.
func (server Server) Run(ctx context.Context, notify func(boundAddress string)) error {
	listener, listenError := net.Listen("tcp", server.config.Address)
	if listenError != nil {
		return fmt.Errorf("listen on %s: %w", server.config.Address, listenError)
	}
	boundAddress := listener.Addr().String()

	router := http.NewServeMux()
	router.HandleFunc(capabilitiesPath, server.handleCapabilities)
	router.HandleFunc(commandsPrefix, server.handleCommand)

	httpServer := &http.Server{Handler: router}
	group, groupContext := errgroup.WithContext(ctx)

	group.Go(func() error {
		serveError := httpServer.Serve(listener)
		if serveError != nil && !errors.Is(serveError, http.ErrServerClosed) {
			return fmt.Errorf("serve commands: %w", serveError)
		}
		return nil
	})

	if notify != nil {
		notify(boundAddress)
	}

	group.Go(func() error {
		<-groupContext.Done()
		shutdownContext, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
		defer cancel()
		shutdownError := httpServer.Shutdown(shutdownContext)
		if shutdownError != nil && !errors.Is(shutdownError, context.Canceled) && !errors.Is(shutdownError, http.ErrServerClosed) {
			return fmt.Errorf("shutdown commands server: %w", shutdownError)
		}
		return nil
	})

	return group.Wait()
}

func (server Server) handleCapabilities(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	payload := struct {
		Capabilities []Capability `json:"capabilities"`
	}{Capabilities: server.config.Capabilities}
	server.writeJSON(writer, http.StatusOK, payload)
}

func (server Server) handleCommand(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	commandName := strings.TrimPrefix(request.URL.Path, commandsPrefix)
	if commandName == "" || strings.Contains(commandName, "/") {
		server.writeJSON(writer, http.StatusNotFound, map[string]string{errorFieldName: errorCommandNotFound})
		return
	}
	executor, registered := server.config.Executors[commandName]
	if !registered {
		server.writeJSON(writer, http.StatusNotFound, map[string]string{errorFieldName: errorCommandNotFound})
		return
	}

	var payload json.RawMessage
	if decodeError := json.NewDecoder(request.Body).Decode(&payload); decodeError != nil && !errors.Is(decodeError, io.EOF) {
		server.writeJSON(writer, http.StatusBadRequest, map[string]string{errorFieldName: fmt.Sprintf("decode request body: %v", decodeError)})
		return
	}

	commandResponse, executeError := executor.Execute(request.Context(), CommandRequest{Payload: payload})
	if executeError != nil {
		server.writeJSON(writer, statusCodeFromError(executeError), map[string]string{errorFieldName: executeError.Error()})
		return
	}
	server.writeJSON(writer, http.StatusOK, commandResponse)
}

func (server Server) writeJSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

func statusCodeFromError(err error) int {
	var requestError RequestError
	if errors.As(err, &requestError) {
		return requestError.StatusCode()
	}
	return http.StatusInternalServerError
}
