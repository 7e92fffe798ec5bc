// Package docstore provides an HTTP client for the ticklist document service
// (see cmd/ticklist-server).
//
// # Endpoints
//
//   - POST   /api/collections/{c}/documents       create, returns {"id": ...}
//   - GET    /api/collections/{c}/documents       list, returns {"documents": [...]}
//   - PATCH  /api/collections/{c}/documents/{id}  partial update
//   - DELETE /api/collections/{c}/documents/{id}  delete
//
// Documents are encoded as {text, completed, deadline, createdAt}; deadline
// is "YYYY-MM-DD" or null. A PATCH body carries only the fields being
// changed.
//
// # Errors
//
// Transport failures are wrapped with context ("execute request: ...").
// Responses with status 400 and above become a *StatusError carrying the
// method, path, status code and the service's error message; a 404 matches
// task.ErrNoDocument under errors.Is. Nothing is retried; the task store decides what to do with a failure.
//
// The Client is safe for concurrent use.
package docstore
