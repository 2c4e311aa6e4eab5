package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"

	"github.com/ironsheep/glyph-flood-mcp/internal/config"
	"github.com/ironsheep/glyph-flood-mcp/internal/imaging"
	"github.com/ironsheep/glyph-flood-mcp/internal/ocr"
)

// ServerName and ServerVersion are reported during the initialize handshake.
const (
	ServerName    = "glyph-flood-mcp"
	ServerVersion = "0.1.0"
)

// Server handles MCP protocol communication
type Server struct {
	cache *imaging.ImageCache
	cfg   *config.Config

	// recognizer is created by ocrEngine on first use.
	mu            sync.Mutex
	recognizer    ocr.Recognizer
	newRecognizer func(ocr.Options) (ocr.Recognizer, error)
}

// Option customizes a Server.
type Option func(*Server)

// WithRecognizer makes the server read glyphs with r instead of Tesseract.
func WithRecognizer(r ocr.Recognizer) Option {
	return func(s *Server) {
		s.recognizer = r
	}
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a new MCP server instance. A nil cfg selects
// config.DefaultConfig.
func New(cfg *config.Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		cache: imaging.NewImageCache(),
		cfg:   cfg,
		newRecognizer: func(o ocr.Options) (ocr.Recognizer, error) {
			return ocr.NewTesseract(o)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run starts the MCP server, reading from stdin and writing to stdout
func (s *Server) Run() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve answers line-delimited JSON-RPC requests from r on w until r is
// exhausted.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	defer s.Close()

	scanner := bufio.NewScanner(r)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(w)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Printf("Failed to parse request: %v", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				log.Printf("Failed to encode response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    ServerName,
				"version": ServerVersion,
			},
		},
	}
}

// ocrEngine returns the shared recognizer, creating it on first use.
func (s *Server) ocrEngine() (ocr.Recognizer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recognizer != nil {
		return s.recognizer, nil
	}
	r, err := s.newRecognizer(s.cfg.OCR)
	if err != nil {
		return nil, fmt.Errorf("failed to start recognizer: %w", err)
	}
	s.recognizer = r
	return r, nil
}

// Close releases the recognizer and cached images.
func (s *Server) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.recognizer.(io.Closer); ok {
		if err := c.Close(); err != nil {
			log.Printf("Failed to close recognizer: %v", err)
		}
	}
	s.recognizer = nil
	s.cache.Clear()
}
