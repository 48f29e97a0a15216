package api

import "time"

// HealthResponse is served from GET /health.
type HealthResponse struct {
	Status string    `json:"status"`
	Uptime string    `json:"uptime"`
	Time   time.Time `json:"time"`
}

// StatusResponse is served from GET /status: a REST snapshot of the same
// data the GraphQL schema exposes, for operators without a GraphQL client.
type StatusResponse struct {
	RunID     string             `json:"run_id"`
	NodeCount int                `json:"node_count"`
	Workers   []WorkerStatusView `json:"workers"`
}

// WorkerStatusView is one row of StatusResponse.Workers.
type WorkerStatusView struct {
	Rank         int    `json:"rank"`
	LastSeenUnix int64  `json:"last_seen_unix"`
	EdgeCount    int    `json:"edge_count"`
	Weight       uint64 `json:"weight"`
}

// ErrorResponse is the JSON body of any non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}
