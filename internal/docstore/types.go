package docstore

import "github.com/five82/ticklist/internal/task"

// CreateResponse is returned by POST /api/collections/{c}/documents.
type CreateResponse struct {
	ID string `json:"id"`
}

// ListResponse is returned by GET /api/collections/{c}/documents.
type ListResponse struct {
	Documents []task.Task `json:"documents"`
}

// ErrorResponse is the body of every 4xx/5xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}
