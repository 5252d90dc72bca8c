// Package models defines the request and response payloads shared by the
// Refgen server, client, and CLI.
package models

// ProjectRequest describes one school project to generate. Only Topic is
// required; everything else feeds the prompt and the title page verbatim.
type ProjectRequest struct {
	Topic       string `json:"topic" binding:"required"`
	Subject     string `json:"subject"`
	Grade       string `json:"grade"`
	PageCount   int    `json:"pageCount"`
	SourceCount int    `json:"sourceCount"`

	// Title page fields
	AuthorName  string `json:"authorName"`
	School      string `json:"school"`
	ClassName   string `json:"className"`
	TeacherName string `json:"teacherName"`
	City        string `json:"city"`
	Year        string `json:"year"`
}

// GenerateResponse is returned by POST /api/generate.
type GenerateResponse struct {
	JobID string `json:"jobId"`
}

// StatusResponse is returned by GET /api/status/:id.
type StatusResponse struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
	Error    string `json:"error,omitempty"`
}

// ErrorResponse is the uniform error payload for non-2xx responses.
type ErrorResponse struct {
	Error string `json:"error"`
}
