package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/arturoeanton/authorlens/internal/service"
)

// Server implements the Model Context Protocol (MCP) server.
// It exposes tools for external AI agents to query the author catalog.
type Server struct {
	retrieval *service.RetrievalService
	answers   *service.AnswerService
	catalog   *service.CatalogService
	port      string

	searchTopK      int
	searchThreshold float64
	askTopK         int
}

// NewServer creates a new MCP server with tool-call defaults.
func NewServer(retrieval *service.RetrievalService, answers *service.AnswerService, catalog *service.CatalogService, port string, searchTopK int, searchThreshold float64, askTopK int) *Server {
	return &Server{
		retrieval:       retrieval,
		answers:         answers,
		catalog:         catalog,
		port:            port,
		searchTopK:      searchTopK,
		searchThreshold: searchThreshold,
		askTopK:         askTopK,
	}
}

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Start begins the MCP server on the configured port.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleRPC)
	mux.HandleFunc("/mcp/sse", s.handleSSE)

	slog.Info("MCP server starting", "port", s.port)
	return http.ListenAndServe(":"+s.port, mux)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, -32700, "parse error")
		return
	}

	var result interface{}
	var err error

	switch req.Method {
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, err = s.callTool(r.Context(), req.Params)
	case "initialize":
		result = map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]string{
				"name":    "authorlens",
				"version": "1.0.0",
			},
			"capabilities": map[string]interface{}{
				"tools": map[string]bool{"listChanged": false},
			},
		}
	default:
		writeError(w, req.ID, -32601, "method not found")
		return
	}

	if err != nil {
		writeError(w, req.ID, -32603, err.Error())
		return
	}

	writeResult(w, req.ID, result)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Send initial endpoint message
	fmt.Fprintf(w, "event: endpoint\ndata: /mcp\n\n")
	w.(http.Flusher).Flush()

	// Keep connection alive
	<-r.Context().Done()
}

func (s *Server) listTools() map[string]interface{} {
	tools := []Tool{
		{
			Name:        "search_authors",
			Description: "Search the author catalog by semantic similarity to a free-text query",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Search query"},
					"top_k": {"type": "integer", "description": "Maximum number of results"}
				},
				"required": ["query"]
			}`),
		},
		{
			Name:        "ask_authors",
			Description: "Ask a question answered from retrieved author profiles",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"question": {"type": "string", "description": "Question to answer"},
					"top_k": {"type": "integer", "description": "Number of authors to use as context"}
				},
				"required": ["question"]
			}`),
		},
		{
			Name:        "list_authors",
			Description: "List authors in the catalog",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"limit": {"type": "integer", "description": "Maximum number of authors"}
				}
			}`),
		},
	}
	return map[string]interface{}{"tools": tools}
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	switch req.Name {
	case "search_authors":
		var args struct {
			Query string `json:"query"`
			TopK  int    `json:"top_k"`
		}
		json.Unmarshal(req.Arguments, &args)
		if args.TopK < 1 {
			args.TopK = s.searchTopK
		}

		matches, err := s.retrieval.Search(ctx, args.Query, args.TopK, s.searchThreshold)
		if err != nil {
			return nil, err
		}
		text, _ := json.Marshal(matches)
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": string(text)},
			},
		}, nil

	case "ask_authors":
		var args struct {
			Question string `json:"question"`
			TopK     int    `json:"top_k"`
		}
		json.Unmarshal(req.Arguments, &args)
		if args.TopK < 1 {
			args.TopK = s.askTopK
		}

		answer, err := s.answers.Ask(ctx, args.Question, args.TopK)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": answer.Answer},
			},
			"sources": answer.Context,
		}, nil

	case "list_authors":
		var args struct {
			Limit int `json:"limit"`
		}
		json.Unmarshal(req.Arguments, &args)
		if args.Limit < 1 {
			args.Limit = 100
		}

		authors, err := s.catalog.List(ctx, args.Limit)
		if err != nil {
			return nil, err
		}
		text, _ := json.Marshal(authors)
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": string(text)},
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", req.Name)
	}
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
