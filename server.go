package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/focusthitipan/consult7/internal/database"
)

// MCPServer handles the MCP protocol over stdio. The protocol stream is
// stdout; all diagnostics and audit records go to stderr.
type MCPServer struct {
	cfg         *Config
	log         zerolog.Logger
	audit       *database.Auditor
	initialized bool
	ctx         context.Context
	cancel      context.CancelFunc
	in          io.Reader
	out         io.Writer
}

// NewMCPServer creates a server with the given limits. No database
// connection is opened up front; adapters are created lazily per DSN when
// the first query arrives.
func NewMCPServer(ctx context.Context, cfg *Config) *MCPServer {
	serverCtx, cancel := context.WithCancel(ctx)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(cfg.logLevel())

	return &MCPServer{
		cfg:    cfg,
		log:    logger,
		audit:  database.NewAuditor(os.Stderr),
		ctx:    serverCtx,
		cancel: cancel,
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

// Run reads JSON-RPC messages line by line from stdin and writes responses
// to stdout until EOF or cancellation.
func (s *MCPServer) Run() error {
	reader := bufio.NewReader(s.in)

	for {
		select {
		case <-s.ctx.Done():
			return s.ctx.Err()
		default:
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		response := s.handleMessage([]byte(line))
		if response != nil {
			responseBytes, err := json.Marshal(response)
			if err != nil {
				s.log.Error().Err(err).Msg("failed to marshal response")
				continue
			}
			fmt.Fprintln(s.out, string(responseBytes))
		}
	}
}

func (s *MCPServer) handleMessage(data []byte) *JSONRPCResponse {
	var req JSONRPCRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      nil,
			Error: &Error{
				Code:    ParseError,
				Message: "Parse error",
				Data:    err.Error(),
			},
		}
	}

	if req.JSONRPC != "2.0" {
		return &JSONRPCResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &Error{
				Code:    InvalidRequest,
				Message: "Invalid JSON-RPC version",
			},
		}
	}

	return s.handleRequest(&req)
}

func (s *MCPServer) handleRequest(req *JSONRPCRequest) *JSONRPCResponse {
	var result any
	var err *Error

	switch req.Method {
	case "initialize":
		result, err = s.handleInitialize(req.Params)
	case "initialized":
		// Notification, no response needed
		return nil
	case "tools/list":
		result, err = s.handleListTools()
	case "tools/call":
		result, err = s.handleCallTool(req.Params)
	case "ping":
		result = map[string]any{}
	default:
		err = &Error{
			Code:    MethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		}
	}

	return &JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   err,
	}
}

// Shutdown cancels the server context.
func (s *MCPServer) Shutdown() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Close shuts the server down and drains every connection pool.
func (s *MCPServer) Close() {
	s.Shutdown()
	database.CloseAllPools()
}
