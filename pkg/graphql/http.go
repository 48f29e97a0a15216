package graphql

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/shouc/distfuzz/pkg/logging"
)

// maxRequestBody caps a /graphql POST body; the cluster status schema
// has no mutations and no list field takes an unbounded argument, so a
// legitimate query never approaches this.
const maxRequestBody = 1 << 16

// Request is one GraphQL-over-HTTP request body.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Response is one GraphQL-over-HTTP response body.
type Response struct {
	Data   any     `json:"data,omitempty"`
	Errors []Error `json:"errors,omitempty"`
}

// Error is one entry in Response.Errors.
type Error struct {
	Message string `json:"message"`
}

// Handler serves the read-only cluster-status GraphQL schema over HTTP.
type Handler struct {
	schema graphql.Schema
	logger logging.Logger
}

// NewGraphQLHandler builds a Handler for schema. logger may be nil, in
// which case query failures are discarded rather than logged.
func NewGraphQLHandler(schema graphql.Schema, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Handler{schema: schema, logger: logger}
}

// ServeHTTP decodes a Request, runs it against the schema, and writes
// back a Response. The schema is query-only, so every call is
// idempotent and safe to retry.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req Request
	body := io.LimitReader(r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var result *graphql.Result
	if len(req.Variables) > 0 {
		result = ExecuteQueryWithVariables(r.Context(), req.Query, h.schema, req.Variables)
	} else {
		result = ExecuteQuery(r.Context(), req.Query, h.schema)
	}

	resp := Response{Data: result.Data}
	if result.HasErrors() {
		resp.Errors = make([]Error, len(result.Errors))
		for i, err := range result.Errors {
			resp.Errors[i] = Error{Message: err.Message}
			h.logger.Warn("graphql: query error", logging.String("message", err.Message))
		}
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
